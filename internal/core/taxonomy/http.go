// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/autolist/internal/platform/apperr"
	"github.com/taibuivan/autolist/internal/platform/constants"
	requestutil "github.com/taibuivan/autolist/internal/platform/request"
	"github.com/taibuivan/autolist/internal/platform/respond"
)

type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/features", handler.listFeatures)
	router.Get("/features/{id}", handler.getFeature)
	router.Get("/match", handler.match)
	router.Post("/refresh", handler.refresh)
}

func (handler *Handler) catalog() (*Catalog, error) {
	catalog := handler.resolver.Catalog()
	if catalog == nil {
		return nil, apperr.ServiceUnavailable("Taxonomy is not loaded")
	}
	return catalog, nil
}

func (handler *Handler) listFeatures(writer http.ResponseWriter, request *http.Request) {
	catalog, err := handler.catalog()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	summaries := catalog.Summaries()
	respond.List(writer, summaries, len(summaries))
}

func (handler *Handler) getFeature(writer http.ResponseWriter, request *http.Request) {
	catalog, err := handler.catalog()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	feature := catalog.Feature(requestutil.Param(request, "id"))
	if feature == nil {
		respond.Error(writer, request, apperr.NotFound("Feature"))
		return
	}
	respond.OK(writer, feature)
}

type matchResponse struct {
	FeatureID string `json:"feature_id"`
	Text      string `json:"text"`
	OptionID  string `json:"option_id,omitempty"`
	Matched   bool   `json:"matched"`
	Default   string `json:"default,omitempty"`
}

// match shows how free text resolves, for tuning the alias tables.
func (handler *Handler) match(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	featureID := strings.TrimSpace(query.Get("feature"))
	text := strings.TrimSpace(query.Get("text"))
	if featureID == "" || text == "" {
		respond.Error(writer, request, apperr.ValidationError("Missing parameters",
			apperr.FieldError{Field: "feature", Message: "feature and text are required"}))
		return
	}

	var (
		optionID string
		ok       bool
	)
	if featureID == constants.FeatureBrand {
		optionID, ok = handler.resolver.ResolveBrand(text)
	} else {
		optionID, ok = handler.resolver.ResolveOption(featureID, text)
	}

	respond.OK(writer, matchResponse{
		FeatureID: featureID,
		Text:      text,
		OptionID:  optionID,
		Matched:   ok,
		Default:   handler.resolver.Default(featureID),
	})
}

func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	catalog, err := handler.resolver.Refresh(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]int{"features": catalog.Len()})
}
