package routes

import (
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/validator"
)

type validatorHandler struct {
	options validator.Options
}

func ValidatorRouter(router fiber.Router, options validator.Options) {
	handler := &validatorHandler{options: options}

	router.Post("/validate", handler.validate)
	router.Post("/patch", handler.patch)
}

func (h *validatorHandler) validate(c *fiber.Ctx) error {
	input, err := readInput(c)
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	report, err := validator.Run(input, h.options)
	if err != nil {
		return sendRunError(c, err)
	}

	return c.JSON(fiber.Map{
		"valid":  report.Valid(),
		"report": report,
	})
}

func (h *validatorHandler) patch(c *fiber.Ctx) error {
	input, err := readInput(c)
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	input.Patch = true

	report, err := validator.Run(input, h.options)
	if err != nil {
		return sendRunError(c, err)
	}

	if report.PatchedFeed == nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "A start date is required to patch the feed",
		})
	}

	if !report.Valid() && c.FormValue("force") != "true" {
		c.Status(fiber.StatusConflict)
		return c.JSON(fiber.Map{
			"error":  "The service order has validation findings, set force=true to patch anyway",
			"report": report,
		})
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Attachment(fmt.Sprintf("gtfs_%s.zip", report.StartDate.Format(time.DateOnly)))

	return c.Send(report.PatchedFeed)
}

func readInput(c *fiber.Ctx) (validator.Input, error) {
	input := validator.Input{}

	serviceOrder, serviceOrderName, err := readFormFile(c, "service_order")
	if err != nil {
		return input, err
	}
	feed, feedName, err := readFormFile(c, "feed")
	if err != nil {
		return input, err
	}

	input.ServiceOrder = serviceOrder
	input.ServiceOrderName = serviceOrderName
	input.Feed = feed
	input.FeedName = feedName

	if input.StartDate, err = readFormDate(c, "start_date"); err != nil {
		return input, err
	}
	if input.EndDate, err = readFormDate(c, "end_date"); err != nil {
		return input, err
	}

	return input, nil
}

func readFormFile(c *fiber.Ctx, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %s file", field)
	}

	data, err := readFileHeader(fileHeader)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s file: %w", field, err)
	}

	return data, fileHeader.Filename, nil
}

func readFileHeader(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func readFormDate(c *fiber.Ctx, field string) (time.Time, error) {
	value := c.FormValue(field)
	if value == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be formatted as YYYY-MM-DD", field)
	}

	return date, nil
}

func sendRunError(c *fiber.Ctx, err error) error {
	errorType := validator.ErrorType(err)
	if errorType == "" {
		log.Error().Err(err).Msg("Validation run failed")
		return err
	}

	c.Status(fiber.StatusUnprocessableEntity)
	return c.JSON(fiber.Map{
		"error": err.Error(),
		"type":  errorType,
	})
}
