// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestConvertToPgx5DSN checks the scheme rewrite required by the pgx5 driver.
*/
func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"postgres://u:p@db:5432/autolist", "pgx5://u:p@db:5432/autolist"},
		{"postgresql://db/autolist?sslmode=disable", "pgx5://db/autolist?sslmode=disable"},
		{"pgx5://db/autolist", "pgx5://db/autolist"},
		{"host=db dbname=autolist", "host=db dbname=autolist"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToPgx5DSN(tt.input))
		})
	}
}
