// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Features downloads the feature tree of the configured category.
func (c *Client) Features(ctx context.Context) (*FeatureTree, error) {
	query := url.Values{}
	query.Set("category_id", c.cfg.CategoryID)
	query.Set("subcategory_id", c.cfg.SubcategoryID)
	query.Set("offer_type", c.cfg.OfferType)
	query.Set("lang", c.cfg.Lang)

	tree := &FeatureTree{}
	if err := c.doJSON(ctx, "features", http.MethodGet, "/features", query, nil, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// dependentKeys are the members that may carry the dependent option list.
var dependentKeys = []string{"options", "Options", "dependent_options", "items"}

// DependentOptions returns the options of the feature that depends on
// dependencyFeatureID, given the chosen parent option (models of a brand,
// generations of a model).
func (c *Client) DependentOptions(ctx context.Context, dependencyFeatureID, parentOptionID string) ([]Option, error) {
	query := url.Values{}
	query.Set("subcategory_id", c.cfg.SubcategoryID)
	query.Set("dependency_feature_id", dependencyFeatureID)
	query.Set("parent_option_id", parentOptionID)
	query.Set("lang", c.cfg.Lang)

	var answer map[string]json.RawMessage
	if err := c.doJSON(ctx, "dependent_options", http.MethodGet, "/dependent_options", query, nil, &answer); err != nil {
		return nil, err
	}

	for _, key := range dependentKeys {
		raw, ok := answer[key]
		if !ok {
			continue
		}
		var options []Option
		if err := json.Unmarshal(raw, &options); err == nil {
			return options, nil
		}
	}
	return nil, nil
}
