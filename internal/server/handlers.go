package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/edgarflat/internal/model"
	"github.com/ppiankov/edgarflat/internal/pipeline"
)

const userKey = "user"

// identify resolves the user header against the users table.
func (s *Server) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(s.userHeader))
		if id == "" {
			s.handleError(c, NewAppError(http.StatusUnauthorized, "Missing "+s.userHeader+" header", nil))
			return
		}
		user, err := s.users.User(c.Request.Context(), id)
		if err != nil {
			s.handleError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) model.User {
	return c.MustGet(userKey).(model.User)
}

// handleTickers returns the ticker list, optionally filtered by ?filter=<prefix>.
func (s *Server) handleTickers(c *gin.Context) {
	tickers, err := s.tickers.Tickers(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pipeline.FilterTickers(tickers, c.Query("filter")))
}

// handleProcess runs the pipeline for the body's CIK.
func (s *Server) handleProcess(c *gin.Context) {
	var req struct {
		CIK string `json:"cik"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}

	summary, err := s.runner.Process(c.Request.Context(), req.CIK, currentUser(c))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// handleFinancials returns the joined view; ?all=true includes unlabelled rows.
func (s *Server) handleFinancials(c *gin.Context) {
	all := c.Query("all") == "true"
	rows, err := s.runner.Financials(c.Request.Context(), currentUser(c), all)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// handleExport downloads the CSV written by the last run.
func (s *Server) handleExport(c *gin.Context) {
	user := currentUser(c)
	path := s.runner.ExportPath(user)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = model.ErrNoDataYet
		}
		s.handleError(c, fmt.Errorf("export: %w", err))
		return
	}
	c.FileAttachment(path, model.ExportFileName(user.ID))
}
