package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pangraph/pkg/errors"
	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/render/nodelink"
	"github.com/matzehuels/pangraph/pkg/snapshot"
)

// GraphSummary is the body of GET /api/graph.
type GraphSummary struct {
	Source       string `json:"source"`
	Fingerprint  string `json:"fingerprint,omitempty"`
	FromCache    bool   `json:"from_cache"`
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	Placeholders int    `json:"placeholders"`
	Genomes      int    `json:"genomes"`
	Basis        string `json:"basis"`
	Layers       int    `json:"layers"`
	Dummies      int    `json:"dummies"`
	BackEdges    int    `json:"back_edges"`
}

// NodeInfo is the body of GET /api/nodes/{id}.
type NodeInfo struct {
	ID          int      `json:"id"`
	Length      int      `json:"length"`
	Placeholder bool     `json:"placeholder,omitempty"`
	Out         []int    `json:"out"`
	In          []int    `json:"in"`
	Genomes     []string `json:"genomes"`
	Layer       int      `json:"layer"`
	X           int      `json:"x"`
	Y           int      `json:"y"`
}

// GenomeInfo is one entry of GET /api/genomes.
type GenomeInfo struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) getGraph(w http.ResponseWriter, _ *http.Request) {
	h, g := s.handle, s.handle.Graph
	out := GraphSummary{
		Source:       h.Source,
		FromCache:    h.FromCache,
		Nodes:        g.Size(),
		Edges:        g.EdgeCount(),
		Placeholders: g.Placeholders(),
		Layers:       s.layout.Layers,
		Dummies:      len(s.layout.Dummies),
		BackEdges:    len(s.layout.BackEdges),
	}
	if h.Fingerprint != 0 {
		out.Fingerprint = snapshot.FormatFingerprint(h.Fingerprint)
	}
	if h.Genomes != nil {
		out.Genomes = h.Genomes.Count()
		out.Basis = h.Genomes.Basis().String()
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) exportGraph(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := graphio.WriteJSON(s.handle, w); err != nil {
		s.logger.Error("failed to encode graph", "err", err)
	}
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id, err := s.nodeParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	n, _ := s.handle.Graph.Node(id)
	p := s.layout.Nodes[id]

	out := NodeInfo{
		ID:          id,
		Length:      n.Length,
		Placeholder: n.Placeholder,
		Out:         nonNil(n.Out),
		In:          nonNil(n.In),
		Genomes:     []string{},
		Layer:       p.Layer,
		X:           p.X,
		Y:           p.Y,
	}
	if ix := s.handle.Genomes; ix != nil {
		for _, gid := range ix.Members(id) {
			out.Genomes = append(out.Genomes, ix.Name(gid))
		}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) getSegment(w http.ResponseWriter, r *http.Request) {
	id, err := s.nodeParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	seq, err := s.handle.Graph.Segment(id)
	if err != nil {
		s.respondError(w, errors.Wrap(errors.ErrCodeIO, err, "read segment %d", id))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(seq + "\n"))
}

func (s *Server) getWindow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	center, err := intParam(q.Get("center"), "center", -1)
	if err != nil {
		s.respondError(w, err)
		return
	}
	radius, err := intParam(q.Get("radius"), "radius", 1)
	if err != nil {
		s.respondError(w, err)
		return
	}
	v, err := s.layout.Window(center, radius)
	if err != nil {
		s.respondError(w, err)
		return
	}

	format := q.Get("format")
	switch format {
	case "", "json":
		s.respondJSON(w, http.StatusOK, v)
	case "dot", "svg":
		dot := nodelink.ToDOT(v, nodelink.Options{
			Detailed: q.Get("detailed") == "true",
			Graph:    s.handle.Graph,
		})
		if format == "dot" {
			w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
			_, _ = w.Write([]byte(dot))
			return
		}
		svg, err := nodelink.RenderSVG(r.Context(), dot)
		if err != nil {
			s.respondError(w, errors.Wrap(errors.ErrCodeInternal, err, "render window"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "unknown format %q (json, dot, svg)", format))
	}
}

func (s *Server) listGenomes(w http.ResponseWriter, _ *http.Request) {
	out := []GenomeInfo{}
	ix := s.handle.Genomes
	if ix != nil {
		counts := make(map[int]int)
		for node := range ix.Len() {
			for _, gid := range ix.Members(node) {
				counts[gid]++
			}
		}
		for gid := range ix.Count() {
			out = append(out, GenomeInfo{ID: gid, Name: ix.Name(gid), Nodes: counts[gid]})
		}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) getPath(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	ix := s.handle.Genomes
	if ix == nil {
		s.respondError(w, errors.New(errors.ErrCodeNotFound, "no genome table"))
		return
	}
	gid, ok := ix.Find(ref)
	if !ok {
		s.respondError(w, errors.New(errors.ErrCodeNotFound, "unknown genome %q", ref))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"genome": ix.Name(gid),
		"nodes":  nonNil(ix.Path(gid)),
	})
}

// nodeParam parses the {id} URL parameter and checks it is a node id.
func (s *Server) nodeParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "node id %q is not an integer", raw)
	}
	if _, ok := s.handle.Graph.Node(id); !ok {
		return 0, errors.New(errors.ErrCodeNotFound, "node %d does not exist", id)
	}
	return id, nil
}

// intParam parses a query parameter, falling back to def when it is absent.
// A negative def makes the parameter required.
func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		if def < 0 {
			return 0, errors.New(errors.ErrCodeInvalidInput, "%s is required", name)
		}
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s %q is not an integer", name, raw)
	}
	return v, nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.respondJSON(w, status, map[string]any{
		"error":   true,
		"code":    string(errors.GetCode(err)),
		"message": errors.UserMessage(err),
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeFormat, errors.ErrCodeMixedBasis:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
