package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wordbank/dictionary/internal/services"
)

const (
	formFieldImage     = "image_file"
	maxMultipartMemory = 1 << 20
	maxAddWordBody     = services.MaxImageBytes + 1<<20
)

func wordInput(r *http.Request) services.WordInput {
	return services.WordInput{
		Name:        r.FormValue("word_name"),
		English:     r.FormValue("english"),
		Description: r.FormValue("description"),
		Image:       r.FormValue("image"),
		Level:       r.FormValue("level"),
		CategoryID:  r.FormValue("category_id"),
	}
}

func wordPath(id int) string {
	return "/word_info/" + strconv.Itoa(id)
}

// AddWord creates a word from a url-encoded or multipart form.
func (h *Handler) AddWord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAddWordBody)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		redirectError(w, r, "/admin", "Upload is too large or malformed")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	var upload *services.ImageUpload
	if header := uploadedFile(r, formFieldImage); header != nil {
		file, err := header.Open()
		if err != nil {
			redirectError(w, r, "/admin", "Upload is too large or malformed")
			return
		}
		defer file.Close()
		upload = &services.ImageUpload{Filename: header.Filename, Size: header.Size, Body: file}
	}

	word, err := h.words.Create(r.Context(), IdentityFrom(r.Context()).UserID, wordInput(r), upload)
	if err != nil {
		h.failure(w, r, err, "/admin", "")
		return
	}
	redirectMessage(w, r, "/admin", "Word "+word.Name+" added")
}

func uploadedFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	return files[0]
}

// UpdateWord replaces every editable field of a word.
func (h *Handler) UpdateWord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "wordID")
	if !ok {
		redirectError(w, r, "/", msgWordNotFound)
		return
	}

	if _, err := h.words.Update(r.Context(), IdentityFrom(r.Context()).UserID, id, wordInput(r)); err != nil {
		if isNotFound(err) {
			redirectError(w, r, "/", msgWordNotFound)
			return
		}
		h.failure(w, r, err, wordPath(id), "")
		return
	}
	redirectMessage(w, r, wordPath(id), "Word updated")
}

// EditField updates the single field named in the path from form value "value".
func (h *Handler) EditField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "wordID")
	if !ok {
		redirectError(w, r, "/", msgWordNotFound)
		return
	}
	field := chi.URLParam(r, "field")

	err := h.words.UpdateField(r.Context(), IdentityFrom(r.Context()).UserID, id, field, r.FormValue("value"))
	if err != nil {
		if isNotFound(err) {
			redirectError(w, r, "/", msgWordNotFound)
			return
		}
		h.failure(w, r, err, wordPath(id), "")
		return
	}
	redirectMessage(w, r, wordPath(id), field+" updated")
}

// DeleteWord shows the confirmation page; nothing is deleted yet.
func (h *Handler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	id, ok := formInt(r, "word_id")
	if !ok {
		redirectError(w, r, "/admin", msgWordNotFound)
		return
	}

	word, err := h.words.Get(r.Context(), id)
	if err != nil {
		h.failure(w, r, err, "/admin", msgWordNotFound)
		return
	}

	token, err := h.confirm.Issue(purposeDeleteWord, word.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to sign confirmation")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.page(w, r, "confirm_delete", map[string]any{
		"Kind":       "word",
		"Name":       word.Name,
		"ConfirmURL": confirmURL("/delete_word_confirm/", word.ID, token),
	})
}

// DeleteWordConfirm deletes the word named by a valid confirmation token.
func (h *Handler) DeleteWordConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "wordID")
	if !ok || h.confirm.Verify(r.URL.Query().Get("token"), purposeDeleteWord, id) != nil {
		redirectError(w, r, "/admin", msgBadConfirmation)
		return
	}

	deleted, err := h.words.Delete(r.Context(), IdentityFrom(r.Context()).UserID, id)
	if err != nil {
		h.failure(w, r, err, "/admin", "")
		return
	}
	if !deleted {
		redirectMessage(w, r, "/admin", "Word was already deleted")
		return
	}
	redirectMessage(w, r, "/admin", "Word deleted")
}
