package database

import (
	"encoding/json"
	"testing"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectedFields(t *testing.T) {
	tests := []struct {
		name string
		out  any
		tag  string
		want []string
	}{
		{"summary json", &[]entity.NoteSummary{}, "json", []string{"id", "title", "author", "disabled"}},
		{"summary bson", &[]entity.NoteSummary{}, "bson", []string{"_id", "title", "author", "disabled"}},
		{"inline base is flattened", &[]entity.Note{}, "bson", []string{
			"_id", "disabled", "createdAt", "updatedAt", "createdBy", "updatedBy",
			"title", "body", "tags", "author",
		}},
		{"pointer elements", &[]*entity.NoteSummary{}, "json", []string{"id", "title", "author", "disabled"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := projectedFields(tt.out, tt.tag)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := projectedFields(&[]string{}, "json")
	assert.Error(t, err)
	_, err = projectedFields([]entity.NoteSummary{}, "json")
	assert.Error(t, err)
}

func TestDisablePatch(t *testing.T) {
	raw := []byte(`{"id":"1","title":"a","disabled":false}`)

	patched, err := disablePatch(raw, outbound.Audit{ActorID: "jo", At: fixedNow})

	require.NoError(t, err)
	var n entity.Note
	require.NoError(t, json.Unmarshal(patched, &n))
	assert.True(t, n.Disabled)
	assert.Equal(t, "a", n.Title)
	assert.Equal(t, "jo", n.UpdatedBy)
	assert.True(t, n.UpdatedAt.Equal(fixedNow))
}
