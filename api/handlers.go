package api

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/diff"
	"github.com/TFMV/keydiff/pkg/readers"
	"github.com/TFMV/keydiff/pkg/table"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// datasetBody is an inline dataset: column names and rows of JSON scalars.
type datasetBody struct {
	Label   string          `json:"label"`
	Columns []string        `json:"columns"`
	Rows    [][]table.Value `json:"rows"`
}

func (b *datasetBody) dataset() (*table.Dataset, error) {
	if b == nil {
		return nil, nil
	}
	ds, err := table.FromRows(b.Columns, b.Rows)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ds, nil
}

func (b *datasetBody) label(fallback string) string {
	if b == nil || b.Label == "" {
		return fallback
	}
	return b.Label
}

type compareRequest struct {
	Left      *datasetBody `json:"left"`
	Right     *datasetBody `json:"right"`
	Keys      []string     `json:"keys"`
	Compare   []string     `json:"compare"`
	Tolerance float64      `json:"tolerance"`
	Parallel  bool         `json:"parallel"`
}

func (r *compareRequest) datasets() (*table.Dataset, *table.Dataset, error) {
	a, err := r.Left.dataset()
	if err != nil {
		return nil, nil, err
	}
	b, err := r.Right.dataset()
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func parseCompareRequest(c *fiber.Ctx) (*compareRequest, error) {
	var req compareRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Tolerance < 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "tolerance must not be negative")
	}
	return &req, nil
}

// handleColumns returns the columns present in both datasets.
func (s *Server) handleColumns(c *fiber.Ctx) error {
	req, err := parseCompareRequest(c)
	if err != nil {
		return err
	}
	a, b, err := req.datasets()
	if err != nil {
		return err
	}
	columns := []string{}
	if a != nil && b != nil {
		columns = diff.CommonColumns(a, b)
	}
	return c.JSON(fiber.Map{"columns": columns})
}

// handleCompare compares two inline datasets.
func (s *Server) handleCompare(c *fiber.Ctx) error {
	req, err := parseCompareRequest(c)
	if err != nil {
		return err
	}
	a, b, err := req.datasets()
	if err != nil {
		return err
	}
	res, err := s.differ.Compare(c.UserContext(), a, b, core.CompareOptions{
		LabelA:         req.Left.label("A"),
		LabelB:         req.Right.label("B"),
		KeyColumns:     req.Keys,
		CompareColumns: req.Compare,
		Tolerance:      req.Tolerance,
		Parallel:       req.Parallel,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// handleCompareFiles compares two uploaded files. The form carries the
// files as "left" and "right", comma separated "keys" and "compare", and
// optional "sheet_left", "sheet_right" and "tolerance". A missing file
// yields an empty comparison.
func (s *Server) handleCompareFiles(c *fiber.Ctx) error {
	dir, err := os.MkdirTemp("", "keydiff-upload-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	var tolerance float64
	if v := c.FormValue("tolerance"); v != "" {
		var err error
		if tolerance, err = strconv.ParseFloat(v, 64); err != nil || tolerance < 0 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid tolerance %q", v))
		}
	}

	a, labelA, err := s.loadUpload(c, dir, "left", c.FormValue("sheet_left"))
	if err != nil {
		return err
	}
	b, labelB, err := s.loadUpload(c, dir, "right", c.FormValue("sheet_right"))
	if err != nil {
		return err
	}

	res, err := s.differ.Compare(c.UserContext(), a, b, core.CompareOptions{
		LabelA:         labelA,
		LabelB:         labelB,
		KeyColumns:     splitList(c.FormValue("keys")),
		CompareColumns: splitList(c.FormValue("compare")),
		Tolerance:      tolerance,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// loadUpload stores the uploaded file field in dir and loads it. A missing
// field returns a nil dataset.
func (s *Server) loadUpload(c *fiber.Ctx, dir, field, sheet string) (*table.Dataset, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, field, nil
	}
	path, err := saveUpload(c, dir, field, fh)
	if err != nil {
		return nil, "", err
	}

	ds, err := readers.Load(c.UserContext(), core.ReaderConfig{Path: path, Sheet: sheet})
	if err != nil {
		s.log.Warn("failed to load upload", zap.String("field", field), zap.String("file", fh.Filename), zap.Error(err))
		return nil, "", fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s: %v", fh.Filename, err))
	}
	return ds, readers.Label(path, sheet), nil
}

// saveUpload keeps the client's base file name so the reader type is
// detected from its extension.
func saveUpload(c *fiber.Ctx, dir, field string, fh *multipart.FileHeader) (string, error) {
	sub := filepath.Join(dir, field)
	if err := os.Mkdir(sub, 0o755); err != nil {
		return "", err
	}
	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = field
	}
	path := filepath.Join(sub, name)
	if err := c.SaveFile(fh, path); err != nil {
		return "", err
	}
	return path, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
