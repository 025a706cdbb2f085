package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"chiafan-supervisor/config"
	"chiafan-supervisor/job"
	"chiafan-supervisor/worker"
)

type statusResponse struct {
	Server  interface{}         `json:"server"`
	Workers []worker.Info       `json:"workers"`
	Jobs    []job.StatusPayload `json:"jobs"`
}

func (s *Server) statusPayload() statusResponse {
	workers := make([]worker.Info, 0, len(s.super.Workers()))
	for _, w := range s.super.Workers() {
		workers = append(workers, w.Inspect())
	}

	statuses := s.super.GetStatus()
	jobs := make([]job.StatusPayload, 0, len(statuses))
	for _, st := range statuses {
		jobs = append(jobs, st.ToPayload())
	}

	return statusResponse{
		Server:  s.super.Inspect(),
		Workers: workers,
		Jobs:    jobs,
	}
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.statusPayload())
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"code":    "ok",
		"version": config.GetFullVersion("supervisor"),
	})
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	s.super.Run()
	return c.JSON(fiber.Map{"code": "started"})
}

func (s *Server) handleDrain(c *fiber.Ctx) error {
	s.super.Drain()
	return c.JSON(fiber.Map{"code": "drained"})
}

type abortRequest struct {
	Target string `json:"target"`
}

func (s *Server) handleAbort(c *fiber.Ctx) error {
	var req abortRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "malformed abort request")
	}
	if req.Target == "" {
		req.Target = c.Query("target")
	}
	if req.Target == "" {
		return fiber.NewError(fiber.StatusBadRequest, "target is required")
	}

	if err := s.super.Abort(req.Target); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(fiber.Map{"code": "aborted", "target": req.Target})
}
