package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/auth"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/i18n"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/storage"
	"github.com/go-chi/chi/v5"
)

const maxImageSize = 10 << 20 // 10 MiB

// ImageUploadHandler stores an uploaded image in the requesting user's
// folder. Name conflicts get a numeric suffix.
func (api *Api) ImageUploadHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	folder := fmt.Sprintf("user_%d", claims.UserID())

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondFieldErrors(w, map[string][]string{"image": {"an image file is required"}})
		return
	}
	defer file.Close()

	if !storage.IsFilenameSafe(header.Filename) {
		ext := storage.Extension(header.Filename)
		respondMessage(w, http.StatusBadRequest, i18n.Textf("image_extension_not_allowed", ext))
		return
	}

	name, err := api.images.Upload(r.Context(), folder, header.Filename, file)
	if err != nil {
		log.Printf("image upload failed for %s: %v", folder, err)
		respondMessage(w, http.StatusInternalServerError, i18n.Textf("image_delete_error", header.Filename))
		return
	}
	respondMessage(w, http.StatusCreated, i18n.Textf("image_uploaded", name))
}

// ImageGetHandler serves an image from the requesting user's folder.
func (api *Api) ImageGetHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	folder := fmt.Sprintf("user_%d", claims.UserID())
	filename := chi.URLParam(r, "filename")

	if !storage.IsFilenameSafe(filename) {
		respondMessage(w, http.StatusBadRequest, i18n.Textf("image_illegal_file_name", filename))
		return
	}

	data, contentType, err := api.images.Get(r.Context(), folder, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Textf("image_not_found", filename))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Textf("image_delete_error", filename))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImageDeleteHandler removes an image from the requesting user's folder.
func (api *Api) ImageDeleteHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	folder := fmt.Sprintf("user_%d", claims.UserID())
	filename := chi.URLParam(r, "filename")

	if !storage.IsFilenameSafe(filename) {
		respondMessage(w, http.StatusBadRequest, i18n.Textf("image_illegal_file_name", filename))
		return
	}

	if err := api.images.Delete(r.Context(), folder, filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Textf("image_not_found", filename))
			return
		}
		log.Printf("image delete failed for %s/%s: %v", folder, filename, err)
		respondMessage(w, http.StatusInternalServerError, i18n.Textf("image_delete_error", filename))
		return
	}
	respondMessage(w, http.StatusOK, i18n.Textf("image_deleted", filename))
}

// AvatarPutHandler replaces the requesting user's avatar. Avatars are
// named user_{id}.{ext}; uploading a new one removes any previous format.
func (api *Api) AvatarPutHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	userID := claims.UserID()
	basename := fmt.Sprintf("user_%d", userID)

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondFieldErrors(w, map[string][]string{"image": {"an image file is required"}})
		return
	}
	defer file.Close()

	ext := strings.ToLower(storage.Extension(header.Filename))
	name := basename + ext
	if !storage.IsFilenameSafe(name) {
		respondMessage(w, http.StatusBadRequest, i18n.Textf("image_extension_not_allowed", ext))
		return
	}

	if existing, err := api.images.FindAvatar(r.Context(), userID); err == nil {
		if err := api.images.Delete(r.Context(), "avatars", existing); err != nil {
			respondMessage(w, http.StatusInternalServerError, i18n.Textf("avatar_delete_error", basename))
			return
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		respondMessage(w, http.StatusInternalServerError, i18n.Textf("avatar_delete_error", basename))
		return
	}

	if err := api.images.Put(r.Context(), "avatars", name, file); err != nil {
		log.Printf("avatar upload failed for user %d: %v", userID, err)
		respondMessage(w, http.StatusInternalServerError, i18n.Textf("avatar_delete_error", basename))
		return
	}
	respondMessage(w, http.StatusOK, i18n.Textf("avatar_uploaded", name))
}

// AvatarGetHandler serves a user's avatar in whichever accepted format it
// was stored.
func (api *Api) AvatarGetHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}

	name, err := api.images.FindAvatar(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Textf("avatar_not_found", userID))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Textf("avatar_not_found", userID))
		return
	}

	data, contentType, err := api.images.Get(r.Context(), "avatars", name)
	if err != nil {
		respondMessage(w, http.StatusNotFound, i18n.Textf("avatar_not_found", userID))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
