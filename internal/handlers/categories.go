package handlers

import (
	"net/http"
	"strconv"
)

const msgBadConfirmation = "That confirmation link is invalid or has expired"

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	category, err := h.categories.Create(r.Context(), identity.UserID, r.FormValue("category_name"))
	if err != nil {
		h.failure(w, r, err, "/admin", "")
		return
	}
	redirectMessage(w, r, "/admin", "Category "+category.Name+" added")
}

// DeleteCategory shows the confirmation page; nothing is deleted yet.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := formInt(r, "category_id")
	if !ok {
		redirectError(w, r, "/admin", msgCategoryNotFound)
		return
	}

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		h.failure(w, r, err, "/admin", msgCategoryNotFound)
		return
	}

	token, err := h.confirm.Issue(purposeDeleteCategory, category.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to sign confirmation")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.page(w, r, "confirm_delete", map[string]any{
		"Kind":       "category",
		"Name":       category.Name,
		"ConfirmURL": confirmURL("/delete_category_confirm/", category.ID, token),
	})
}

// DeleteCategoryConfirm deletes the category named by a valid confirmation token.
func (h *Handler) DeleteCategoryConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "categoryID")
	if !ok || h.confirm.Verify(r.URL.Query().Get("token"), purposeDeleteCategory, id) != nil {
		redirectError(w, r, "/admin", msgBadConfirmation)
		return
	}

	deleted, err := h.categories.Delete(r.Context(), IdentityFrom(r.Context()).UserID, id)
	if err != nil {
		h.failure(w, r, err, "/admin", "")
		return
	}
	if !deleted {
		redirectMessage(w, r, "/admin", "Category was already deleted")
		return
	}
	redirectMessage(w, r, "/admin", "Category deleted")
}

func confirmURL(prefix string, id int, token string) string {
	return prefix + strconv.Itoa(id) + "?token=" + token
}
