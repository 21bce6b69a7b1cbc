// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/autolist/internal/platform/request"
	"github.com/taibuivan/autolist/internal/platform/respond"
)

const maxEligibleLimit = 500

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/eligible", handler.listEligible)
	router.Get("/{id}/state", handler.getState)
	router.Post("/{id}/publish", handler.publish)
	router.Post("/{id}/sync", handler.sync)
	router.Post("/{id}/hide", handler.hide)
}

func (handler *Handler) listEligible(writer http.ResponseWriter, request *http.Request) {
	limit := requestutil.QueryInt(request, "limit", 20, maxEligibleLimit)

	ids, err := handler.service.ListEligible(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, ids, len(ids))
}

func (handler *Handler) getState(writer http.ResponseWriter, request *http.Request) {
	recordID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	state, err := handler.service.State(request.Context(), recordID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, state)
}

func (handler *Handler) publish(writer http.ResponseWriter, request *http.Request) {
	recordID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.PublishOne(request.Context(), recordID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if result.Action == ActionCreated {
		respond.Created(writer, result)
		return
	}
	respond.OK(writer, result)
}

type syncRequest struct {
	ListingID string `json:"listing_id"`
}

func (handler *Handler) sync(writer http.ResponseWriter, request *http.Request) {
	recordID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body syncRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var result *Result
	if body.ListingID != "" {
		result, err = handler.service.SyncOne(request.Context(), body.ListingID, recordID)
	} else {
		result, err = handler.service.SyncRecord(request.Context(), recordID)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) hide(writer http.ResponseWriter, request *http.Request) {
	recordID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.HideOne(request.Context(), recordID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}
