package handler

import (
	"encoding/json"
	"net/http"

	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/mapper"
)

type CreateNoteInput struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}

func DecodeNote(r *http.Request) (any, error) {
	var in CreateNoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return nil, err
	}
	return in, nil
}

// RegisterNoteMappings declares the request shapes the notes collection accepts.
func RegisterNoteMappings(m *mapper.Registry) {
	mapper.Register(m, func(in CreateNoteInput) (entity.Note, error) {
		n, err := entity.NewNote(in.Title, in.Body, in.Author, in.Tags...)
		if err != nil {
			return entity.Note{}, dataerr.InvalidArgument("handler.CreateNoteInput", err.Error())
		}
		return *n, nil
	})
}
