package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"begroting/estimating"
)

type chapterInput struct {
	ParentID  *string `json:"parent_id"`
	Code      *string `json:"code"`
	Name      *string `json:"name"`
	SortOrder *int    `json:"sort_order"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func HandleChapterAdd(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in chapterInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		change, err := eng.AddChapter(e.Request.Context(), e.Request.PathValue("id"), estimating.ChapterDraft{
			ParentID:  deref(in.ParentID),
			Code:      deref(in.Code),
			Name:      deref(in.Name),
			SortOrder: deref(in.SortOrder),
		})
		if err != nil {
			return engineError(e, "chapter_add", err)
		}

		SetToast(e, "success", "Chapter added")
		return e.JSON(http.StatusCreated, changeView(change))
	}
}

// HandleChapterUpdate renames, renumbers or re-parents a chapter. An empty
// parent_id moves it to the top level; leaving parent_id out keeps it
// where it is.
func HandleChapterUpdate(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in chapterInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		change, err := eng.UpdateChapter(e.Request.Context(),
			e.Request.PathValue("id"), e.Request.PathValue("chapterId"),
			estimating.ChapterPatch{
				ParentID:  in.ParentID,
				Code:      in.Code,
				Name:      in.Name,
				SortOrder: in.SortOrder,
			})
		if err != nil {
			return engineError(e, "chapter_update", err)
		}

		SetToast(e, "success", "Chapter updated")
		return e.JSON(http.StatusOK, changeView(change))
	}
}

// HandleChapterDelete removes a chapter with its sub-chapters and all
// their lines, and answers with the recomputed tree.
func HandleChapterDelete(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		change, err := eng.DeleteChapter(e.Request.Context(), e.Request.PathValue("id"), e.Request.PathValue("chapterId"))
		if err != nil {
			return engineError(e, "chapter_delete", err)
		}

		SetToast(e, "success", "Chapter deleted")
		return e.JSON(http.StatusOK, changeView(change))
	}
}
