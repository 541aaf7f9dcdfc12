package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/i18n"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/models"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/store"
	"github.com/go-chi/chi/v5"
)

type itemRequest struct {
	Price   float64 `json:"price"`
	StoreID int64   `json:"store_id"`
}

// StoreGetHandler returns a store with its items nested.
func (api *Api) StoreGetHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	st, err := api.store.GetStoreByName(name)
	if err != nil {
		if errors.Is(err, store.ErrStoreNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Text("store_not_found"))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("store_insert_error"))
		return
	}
	respondJSON(w, http.StatusOK, models.NewStoreView(st))
}

// StoreCreateHandler creates a store if the name is free.
func (api *Api) StoreCreateHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	st, err := api.store.CreateStore(name)
	if err != nil {
		if errors.Is(err, store.ErrStoreExists) {
			respondMessage(w, http.StatusBadRequest, i18n.Textf("store_name_exists", name))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("store_insert_error"))
		return
	}
	respondJSON(w, http.StatusCreated, models.NewStoreView(st))
}

func (api *Api) StoreDeleteHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := api.store.DeleteStore(name); err != nil {
		if errors.Is(err, store.ErrStoreNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Text("store_not_found"))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("store_insert_error"))
		return
	}
	respondMessage(w, http.StatusOK, i18n.Text("store_deleted"))
}

func (api *Api) StoreListHandler(w http.ResponseWriter, r *http.Request) {
	stores, err := api.store.ListStores()
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, i18n.Text("store_insert_error"))
		return
	}

	views := make([]*models.StoreView, 0, len(stores))
	for _, st := range stores {
		views = append(views, models.NewStoreView(st))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"stores": views})
}

func (api *Api) ItemGetHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	item, err := api.store.GetItemByName(name)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Text("item_not_found"))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("item_insert_error"))
		return
	}
	respondJSON(w, http.StatusOK, models.NewItemView(item))
}

// ItemCreateHandler creates an item; the name comes from the URL, price
// and store from the body.
func (api *Api) ItemCreateHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}

	item, err := api.store.CreateItem(name, req.Price, req.StoreID)
	if err != nil {
		if errors.Is(err, store.ErrItemExists) {
			respondMessage(w, http.StatusBadRequest, i18n.Textf("item_name_exists", name))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("item_insert_error"))
		return
	}
	respondJSON(w, http.StatusCreated, models.NewItemView(item))
}

// ItemPutHandler upserts: updates the price of an existing item or
// creates it.
func (api *Api) ItemPutHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, i18n.Text("validation_error"))
		return
	}

	item, err := api.store.GetItemByName(name)
	if err == nil {
		if err := api.store.UpdateItemPrice(item, req.Price); err != nil {
			respondMessage(w, http.StatusInternalServerError, i18n.Text("item_insert_error"))
			return
		}
		respondJSON(w, http.StatusOK, models.NewItemView(item))
		return
	}
	if !errors.Is(err, store.ErrItemNotFound) {
		respondMessage(w, http.StatusInternalServerError, i18n.Text("item_insert_error"))
		return
	}

	item, err = api.store.CreateItem(name, req.Price, req.StoreID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, i18n.Text("item_insert_error"))
		return
	}
	respondJSON(w, http.StatusOK, models.NewItemView(item))
}

func (api *Api) ItemDeleteHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := api.store.DeleteItem(name); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			respondMessage(w, http.StatusNotFound, i18n.Text("item_not_found"))
			return
		}
		respondMessage(w, http.StatusInternalServerError, i18n.Text("item_insert_error"))
		return
	}
	respondMessage(w, http.StatusOK, i18n.Text("item_deleted"))
}

func (api *Api) ItemListHandler(w http.ResponseWriter, r *http.Request) {
	items, err := api.store.ListItems()
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, i18n.Text("item_insert_error"))
		return
	}

	views := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, models.NewItemView(item))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": views})
}
