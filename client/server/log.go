package server

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/server/util"
)

// LogLevel is the body of the log level routes
type LogLevel struct {
	Level string `json:"level"`
}

func (s *Server) getLogLevel(w http.ResponseWriter, r *http.Request) {
	util.WriteJSONObject(r.Context(), w, LogLevel{Level: log.GetLevel().String()})
}

// setLogLevel changes the daemon log level until the next restart
func (s *Server) setLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevel
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteErrorResponse("couldn't parse JSON request", http.StatusBadRequest, w)
		return
	}

	level, err := log.ParseLevel(req.Level)
	if err != nil {
		util.WriteErrorResponse("unknown log level "+req.Level+". Available levels are: panic, fatal, error, warn, info, debug, trace", http.StatusBadRequest, w)
		return
	}

	log.SetLevel(level)
	log.WithContext(r.Context()).Infof("log level set to %s", level)
	util.WriteJSONObject(r.Context(), w, LogLevel{Level: level.String()})
}
