package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"shophub/internal/domain"
	productsvc "shophub/internal/service/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductWriter is the subset of the product repository the importer needs.
type ProductWriter interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and creates or overwrites products.
//
// The header row names the columns; recognised ones are id, name, description, price,
// category, stock, image, rating and review.userId, review.comment, review.rating.
// A row with an empty name but review columns set adds a review to the product above it.
type CSVImporter struct {
	reader *csv.Reader
	repo   ProductWriter
	logger *log.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *log.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CSVImporter{reader: csvr, repo: repo, logger: logger}
}

type csvRow struct {
	line    int
	id      string
	input   productsvc.Input
	reviews []domain.Review
}

// Run imports every product in the file and returns how many were written.
// Rows carrying an id are upserted under that id; the rest are created with a fresh one.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, fmt.Errorf("%w: csv has no name column", domain.ErrValidation)
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		name := pick(record, index, "name")
		review, hasReview, err := parseReview(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}

		if name == "" {
			if !hasReview {
				continue
			}
			if current == nil {
				return imported, fmt.Errorf("%w: line %d: review row before any product", domain.ErrValidation, line)
			}
			current.reviews = append(current.reviews, review)
			continue
		}

		if current != nil {
			if err := i.save(ctx, current); err != nil {
				return imported, err
			}
			imported++
		}
		current, err = parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if hasReview {
			current.reviews = append(current.reviews, review)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}
	i.logger.Printf("importer: done imported=%d", imported)
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	row.input.Reviews = row.reviews
	p, err := row.input.Product()
	if err != nil {
		return fmt.Errorf("line %d: %w", row.line, err)
	}
	if row.id == "" {
		saved, err := i.repo.Create(ctx, p)
		if err != nil {
			return fmt.Errorf("create product %q: %w", p.Name, err)
		}
		i.logger.Printf("importer: created id=%s name=%q", saved.ID, saved.Name)
		return nil
	}
	if _, err := uuid.Parse(row.id); err != nil {
		return fmt.Errorf("%w: line %d: invalid id %q", domain.ErrValidation, row.line, row.id)
	}
	p.ID = row.id
	if _, err := i.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Name, err)
	}
	i.logger.Printf("importer: upserted id=%s name=%q", p.ID, p.Name)
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	price, err := parseDecimal(pick(record, index, "price"))
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: price: %v", domain.ErrValidation, line, err)
	}
	rating, err := parseDecimal(pick(record, index, "rating"))
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: rating: %v", domain.ErrValidation, line, err)
	}
	stock := 0
	if s := pick(record, index, "stock"); s != "" {
		if stock, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("%w: line %d: stock %q is not a whole number", domain.ErrValidation, line, s)
		}
	}
	return &csvRow{
		line: line,
		id:   pick(record, index, "id"),
		input: productsvc.Input{
			Name:        pick(record, index, "name"),
			Description: pick(record, index, "description"),
			Price:       price,
			Category:    pick(record, index, "category"),
			Stock:       stock,
			Image:       pick(record, index, "image"),
			Rating:      rating,
		},
	}, nil
}

func parseReview(record []string, index map[string]int) (domain.Review, bool, error) {
	comment := pick(record, index, "review.comment")
	user := pick(record, index, "review.userid")
	ratingStr := pick(record, index, "review.rating")
	if comment == "" && user == "" && ratingStr == "" {
		return domain.Review{}, false, nil
	}
	rating, err := parseDecimal(ratingStr)
	if err != nil {
		return domain.Review{}, false, fmt.Errorf("%w: review rating: %v", domain.ErrValidation, err)
	}
	return domain.Review{UserID: user, Comment: comment, Rating: rating}, true, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
