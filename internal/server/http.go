package server

import (
	"net/http"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/core/tree"
)

// PropertyInfo describes one property of a kind.
type PropertyInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ReadOnly bool   `json:"read_only,omitempty"`
}

// KindInfo describes one persisted kind.
type KindInfo struct {
	Tag        string         `json:"tag"`
	Properties []PropertyInfo `json:"properties"`
}

// TypesResponse is the body of GET /types.
type TypesResponse struct {
	Kinds  []KindInfo                    `json:"kinds"`
	Values map[string]*jsonschema.Schema `json:"values"`
}

func (s *Inspector) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Inspector) handleScene(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := s.loop.Do(r.Context(), func(*tree.Tree) error {
		var err error
		data, err = s.scenes.Encode()
		return err
	})
	if err != nil {
		s.logger.Warn("scene dump failed", log.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Inspector) handleTypes(w http.ResponseWriter, _ *http.Request) {
	resp := TypesResponse{Values: s.catalog.Schemas()}
	for _, table := range s.catalog.Tables() {
		kind := KindInfo{Tag: table.Tag}
		for _, d := range table.Props {
			kind.Properties = append(kind.Properties, PropertyInfo{
				Name:     d.Name,
				Type:     s.typeName(d.Type),
				ReadOnly: d.ReadOnly(),
			})
		}
		resp.Kinds = append(resp.Kinds, kind)
	}
	writeJSON(w, resp)
}

func (s *Inspector) typeName(typ reflect.Type) string {
	if name, ok := s.catalog.ValueName(typ); ok {
		return name
	}
	return typ.String()
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
