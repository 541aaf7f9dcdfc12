package api

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/auth"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/i18n"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/mail"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/models"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/store"
	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var activationPage = template.Must(template.New("activation").Parse(`<!DOCTYPE html>
<html>
<head><title>Registration activated</title></head>
<body>
<h1>Registration activated</h1>
<p>Your account <b>{{.Email}}</b> has been activated. You can now log in.</p>
</body>
</html>
`))

func (req *registerRequest) validate() map[string][]string {
	errs := map[string][]string{}
	if req.Username == "" {
		errs["username"] = append(errs["username"], "username is required")
	}
	if len(req.Username) > 20 {
		errs["username"] = append(errs["username"], "username must be at most 20 characters")
	}
	if req.Email == "" {
		errs["email"] = append(errs["email"], "email is required")
	} else if !strings.Contains(req.Email, "@") || !strings.Contains(req.Email, ".") {
		errs["email"] = append(errs["email"], "email format is invalid")
	}
	if req.Password == "" {
		errs["password"] = append(errs["password"], "password is required")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// RegisterHandler creates a user and triggers the activation email.
func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}
	if errs := req.validate(); errs != nil {
		respondFieldErrors(w, errs)
		return
	}

	_, err := api.registration.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		respondMessage(w, http.StatusCreated, i18n.Text("user_register_successful"))
	case errors.Is(err, store.ErrUsernameTaken):
		respondMessage(w, http.StatusBadRequest, i18n.Text("user_name_exists"))
	case errors.Is(err, store.ErrEmailTaken):
		respondMessage(w, http.StatusBadRequest, i18n.Text("user_email_exists"))
	case errors.Is(err, mail.ErrSendFailed):
		respondMessage(w, http.StatusInternalServerError, i18n.Text("user_email_send_error"))
	default:
		log.Printf("registration failed for %q: %v", req.Username, err)
		respondMessage(w, http.StatusInternalServerError, i18n.Text("user_register_error"))
	}
}

// LoginHandler verifies credentials and returns the token pair.
func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}

	pair, err := api.auth.Login(req.Username, req.Password)
	if err != nil {
		var notActivated *auth.NotActivatedError
		if errors.As(err, &notActivated) {
			respondMessage(w, http.StatusUnauthorized, i18n.Textf("user_not_activated", notActivated.Email))
			return
		}
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondMessage(w, http.StatusUnauthorized, i18n.Text("user_invalid_credentials"))
			return
		}
		log.Printf("login failed for %q: %v", req.Username, err)
		respondMessage(w, http.StatusInternalServerError, i18n.Text("user_register_error"))
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

// RefreshHandler mints a new access token from the validated refresh
// claims. The result is never fresh.
func (api *Api) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, i18n.Text("token_missing"))
		return
	}

	accessToken, err := api.tokens.RefreshAccess(claims)
	if err != nil {
		log.Printf("token refresh failed: %v", err)
		respondMessage(w, http.StatusInternalServerError, i18n.Text("token_invalid"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// LogoutHandler revokes the presented access token.
func (api *Api) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, i18n.Text("token_missing"))
		return
	}

	userID := api.auth.Logout(claims)
	respondMessage(w, http.StatusOK, i18n.Textf("user_logged_out", userID))
}

// UserGetHandler returns the serialized user with its most recent
// activation.
func (api *Api) UserGetHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}

	user, err := api.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Text("user_not_found"))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("user_register_error"))
		return
	}

	var activation *models.Activation
	if a, err := api.store.MostRecentActivation(userID); err == nil {
		activation = a
	}

	respondJSON(w, http.StatusOK, models.NewUserView(user, activation))
}

// UserDeleteHandler removes a user; activation records cascade.
func (api *Api) UserDeleteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}

	if err := api.store.DeleteUser(userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Text("user_not_found"))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("user_register_error"))
		return
	}
	respondMessage(w, http.StatusOK, i18n.Text("user_deleted"))
}

// ActivateHandler confirms an activation link and renders the
// confirmation page.
func (api *Api) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	activationID := chi.URLParam(r, "activation_id")

	activation, err := api.store.GetActivation(activationID)
	if err != nil {
		if errors.Is(err, store.ErrActivationNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Text("activation_not_found"))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("activation_resend_error"))
		return
	}

	if err := api.store.ConfirmActivation(activation); err != nil {
		switch {
		case errors.Is(err, store.ErrActivationExpired):
			respondMessage(w, http.StatusBadRequest, i18n.Text("activation_expired"))
		case errors.Is(err, store.ErrAlreadyActivated):
			respondMessage(w, http.StatusBadRequest, i18n.Text("activation_activated"))
		default:
			respondMessage(w, http.StatusInternalServerError, i18n.Text("activation_resend_error"))
		}
		return
	}

	user, err := api.store.GetUserByID(activation.UserID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, i18n.Text("user_not_found"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	activationPage.Execute(w, map[string]string{"Email": user.Email})
}

// ActivationListHandler lists a user's activation records, oldest expiry
// first, together with the current server time.
func (api *Api) ActivationListHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}

	if _, err := api.store.GetUserByID(userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Text("user_not_found"))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("activation_resend_error"))
		return
	}

	activations, err := api.store.ListActivations(userID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, i18n.Text("activation_resend_error"))
		return
	}

	views := make([]*models.ActivationView, 0, len(activations))
	for _, a := range activations {
		views = append(views, models.NewActivationView(a))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"current_time": time.Now().Unix(),
		"activation":   views,
	})
}

// ActivationResendHandler force-expires the pending link and sends a new
// activation email.
func (api *Api) ActivationResendHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}

	err = api.registration.Resend(r.Context(), userID)
	switch {
	case err == nil:
		respondMessage(w, http.StatusCreated, i18n.Text("activation_resend_successful"))
	case errors.Is(err, store.ErrUserNotFound):
		respondMessage(w, http.StatusNotFound, i18n.Text("user_not_found"))
	case errors.Is(err, store.ErrAlreadyActivated):
		respondMessage(w, http.StatusBadRequest, i18n.Text("activation_activated"))
	case errors.Is(err, mail.ErrSendFailed):
		respondMessage(w, http.StatusInternalServerError, i18n.Text("user_email_send_error"))
	default:
		log.Printf("activation resend failed for user %d: %v", userID, err)
		respondMessage(w, http.StatusInternalServerError, i18n.Text("activation_resend_error"))
	}
}
