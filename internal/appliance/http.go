package appliance

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/saaga0h/solarium/internal/control"
	"github.com/saaga0h/solarium/pkg/health"
	"github.com/saaga0h/solarium/pkg/metrics"
)

// maxCommandBytes bounds a command body posted over HTTP
const maxCommandBytes = 4096

// NewRouter exposes health, metrics and the appliance state over HTTP.
// Commands posted to /command/{target} take the same path as MQTT ones.
func NewRouter(a *Agent, checker *health.Checker, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", checker.HandlerFunc()).Methods(http.MethodGet)
	r.HandleFunc("/health/detailed", checker.DetailedHandlerFunc()).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, a.Controller().Status())
	}).Methods(http.MethodGet)

	r.HandleFunc("/climate", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, a.Climate().Snapshot())
	}).Methods(http.MethodGet)

	r.HandleFunc("/schedule", func(w http.ResponseWriter, req *http.Request) {
		st := a.Scheduler().Status()
		if st.Day == nil {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "no schedule built yet"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"day":     st.Day.Date.Format("2006-01-02"),
			"trigger": st.LastTrigger,
			"points":  st.Day.Summary(),
			"windows": st.Day.Windows(),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/command/{target}", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxCommandBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		err = a.Controller().Handle(mux.Vars(req)["target"], body)
		switch {
		case errors.Is(err, control.ErrDropped):
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
		case err != nil:
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		default:
			w.WriteHeader(http.StatusAccepted)
		}
	}).Methods(http.MethodPost)

	return r
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
