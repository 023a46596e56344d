package server

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	branding "github.com/andreago-sparkensolutions/sparken-branding"
)

// brandRequest holds the optional form fields sent next to the file.
type brandRequest struct {
	Title    string `form:"title" validate:"max=200"`
	Subtitle string `form:"subtitle" validate:"max=200"`
	Theme    string `form:"theme" validate:"omitempty,oneof=formal creative"`
	Cover    *bool  `form:"cover"`
}

var validate = validator.New()

const brandFailure = "Failed to apply branding"

func (s *Server) brand(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file provided"})
	}

	var req brandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid form fields"})
	}
	req.Theme = strings.ToLower(strings.TrimSpace(req.Theme))
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	f, err := fh.Open()
	if err != nil {
		return s.fail(c, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return s.fail(c, fmt.Errorf("read upload: %w", err))
	}

	res, err := s.conv.Convert(c.UserContext(), branding.Input{
		Filename:     fh.Filename,
		Data:         data,
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		Theme:        req.Theme,
		AddCoverPage: req.Cover,
	})
	if err != nil {
		if branding.IsInputError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return s.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, contentDisposition(res.Filename))
	c.Set("X-Sparken-Engine", res.Engine)
	return c.Send(res.PDF)
}

// fail answers 500. The cause is always in details; the error chain is only
// exposed outside production.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	s.log.Error("branding failed", zap.String("request_id", requestIDOf(c)), zap.Error(err))
	body := fiber.Map{"error": brandFailure, "details": err.Error()}
	if !s.cfg.IsProduction() {
		debug := fiber.Map{"type": fmt.Sprintf("%T", err), "request_id": requestIDOf(c)}
		var re *branding.RenderError
		if errors.As(err, &re) {
			debug["stage"] = re.Stage
		}
		body["debug"] = debug
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

func (s *Server) capabilities(c *fiber.Ctx) error {
	return c.JSON(s.conv.Capabilities(c.UserContext()))
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func contentDisposition(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf(`attachment; filename="%s"`, name)
}
