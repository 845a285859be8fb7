package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avkazmin/page-analyzer/internal/checker"
	"github.com/avkazmin/page-analyzer/internal/service"
	"github.com/avkazmin/page-analyzer/internal/store"
)

const dateLayout = "2006-01-02"

type indexData struct {
	Flashes []Flash
	Errors  []string
	Value   string
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", indexData{Flashes: s.flashes.Pop(w, r)})
}

func (s *Server) createURL(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	raw := r.PostFormValue("url")

	res, err := s.svc.AddURL(r.Context(), raw)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			s.render(w, http.StatusUnprocessableEntity, "index", indexData{
				Errors: vErr.Messages,
				Value:  raw,
			})
			return
		}
		s.flashes.Set(w, Flash{Category: "danger", Message: "An error occurred while adding the URL"})
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if res.Created {
		s.flashes.Set(w, Flash{Category: "success", Message: "URL successfully added"})
	} else {
		s.flashes.Set(w, Flash{Category: "info", Message: "URL already exists"})
	}
	http.Redirect(w, r, fmt.Sprintf("/urls/%d", res.ID), http.StatusFound)
}

type urlRowView struct {
	ID          int64
	Name        string
	LastChecked string
	LastStatus  string
}

type urlsData struct {
	Flashes []Flash
	URLs    []urlRowView
}

func (s *Server) listURLs(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.svc.ListURLs(r.Context())
	if err != nil {
		s.flashes.Set(w, Flash{Category: "danger", Message: "An error occurred while loading sites"})
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, http.StatusOK, "urls", urlsData{
		Flashes: s.flashes.Pop(w, r),
		URLs:    toURLRows(summaries),
	})
}

type checkRowView struct {
	ID          int64
	Status      int
	H1          string
	Title       string
	Description string
	CreatedAt   string
}

type urlView struct {
	ID        int64
	Name      string
	CreatedAt string
}

type urlData struct {
	Flashes []Flash
	URL     urlView
	Checks  []checkRowView
}

func (s *Server) showURL(w http.ResponseWriter, r *http.Request) {
	id, err := parseURLID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	detail, err := s.svc.GetURL(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.flashes.Set(w, Flash{Category: "danger", Message: fmt.Sprintf("URL with id %d not found", id)})
			http.Redirect(w, r, "/urls", http.StatusFound)
			return
		}
		s.flashes.Set(w, Flash{Category: "danger", Message: "An error occurred while loading the URL"})
		http.Redirect(w, r, "/urls", http.StatusFound)
		return
	}
	s.render(w, http.StatusOK, "url", urlData{
		Flashes: s.flashes.Pop(w, r),
		URL: urlView{
			ID:        detail.URL.ID,
			Name:      detail.URL.Name,
			CreatedAt: detail.URL.CreatedAt.Format(dateLayout),
		},
		Checks: toCheckRows(detail.Checks),
	})
}

func (s *Server) runCheck(w http.ResponseWriter, r *http.Request) {
	id, err := parseURLID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch err := s.svc.RunCheck(r.Context(), id); {
	case err == nil:
		s.flashes.Set(w, Flash{Category: "success", Message: "Page successfully checked"})
	case errors.Is(err, store.ErrNotFound):
		s.flashes.Set(w, Flash{Category: "danger", Message: fmt.Sprintf("URL with id %d not found", id)})
		http.Redirect(w, r, "/urls", http.StatusFound)
		return
	default:
		var fetchErr *checker.FetchError
		if errors.As(err, &fetchErr) {
			s.flashes.Set(w, Flash{Category: "danger", Message: "An error occurred while checking the page"})
		} else {
			s.logger.Error("run check failed", zap.Int64("url_id", id), zap.Error(err))
			s.flashes.Set(w, Flash{Category: "danger", Message: "An error occurred while saving the check"})
		}
	}
	http.Redirect(w, r, fmt.Sprintf("/urls/%d", id), http.StatusFound)
}

func parseURLID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func toURLRows(in []store.URLSummary) []urlRowView {
	out := make([]urlRowView, 0, len(in))
	for _, sum := range in {
		row := urlRowView{
			ID:   sum.URL.ID,
			Name: sum.URL.Name,
		}
		if sum.LastCheckedAt != nil {
			row.LastChecked = sum.LastCheckedAt.Format(dateLayout)
		}
		if sum.LastStatusCode != nil {
			row.LastStatus = strconv.Itoa(*sum.LastStatusCode)
		}
		out = append(out, row)
	}
	return out
}

func toCheckRows(in []store.URLCheck) []checkRowView {
	out := make([]checkRowView, 0, len(in))
	for _, c := range in {
		row := checkRowView{
			ID:        c.ID,
			CreatedAt: c.CreatedAt.Format(dateLayout),
		}
		if c.StatusCode != nil {
			row.Status = *c.StatusCode
		}
		if c.H1 != nil {
			row.H1 = *c.H1
		}
		if c.Title != nil {
			row.Title = *c.Title
		}
		if c.Description != nil {
			row.Description = *c.Description
		}
		out = append(out, row)
	}
	return out
}
