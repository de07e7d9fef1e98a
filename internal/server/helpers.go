package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/derekprior/heatsheet/internal/control"
	"github.com/derekprior/heatsheet/internal/model"
	"github.com/derekprior/heatsheet/internal/schedule"
)

type envelope map[string]any

const maxBodyBytes = 1 << 20

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		s.log.Error("encoding response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string, extra envelope) {
	env := envelope{"error": message}
	for k, v := range extra {
		env[k] = v
	}
	s.writeJSON(w, status, env)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.errorResponse(w, http.StatusBadRequest, err.Error(), nil)
}

// fail maps controller and engine errors onto responses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var timeout *schedule.TimeoutError
	switch {
	case errors.As(err, &timeout):
		s.errorResponse(w, http.StatusGatewayTimeout, err.Error(), envelope{"attempts": timeout.Attempts})
	case errors.Is(err, model.ErrValidation):
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, control.ErrNoJam):
		s.errorResponse(w, http.StatusNotFound, err.Error(), nil)
	case r.Context().Err() != nil:
		s.log.Info("request cancelled", "path", r.URL.Path)
	default:
		s.log.Error("internal server error", "method", r.Method, "path", r.URL.Path, "err", err)
		s.errorResponse(w, http.StatusInternalServerError,
			"the server encountered a problem and could not process your request", nil)
	}
}
