// Package seed bulk-loads items from CSV through the ledger, so every
// seeded item gets its PURCHASE log.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"inventory/m/domain"
	"inventory/m/internal/admin"
	"inventory/m/internal/ledger"
	"inventory/m/internal/logging"
)

// Result counts the rows of one load.
type Result struct {
	Created int
	Skipped int
}

type Loader struct {
	ledger *ledger.Service
	admin  *admin.Service
	logger logging.Logger
}

func NewLoader(l *ledger.Service, a *admin.Service, logger logging.Logger) *Loader {
	return &Loader{ledger: l, admin: a, logger: logger}
}

// LoadItemsFile opens csvPath and passes it to LoadItems.
func (l *Loader) LoadItemsFile(ctx context.Context, actor *domain.User, storeID, csvPath string) (Result, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return Result{}, fmt.Errorf("open item catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return l.LoadItems(ctx, actor, storeID, file)
}

// LoadItems reads name,price,quantity,category rows after a header line.
// Categories are created on first use. Rows the ledger rejects are
// logged and skipped.
func (l *Loader) LoadItems(ctx context.Context, actor *domain.User, storeID string, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("read item header: %w", err)
	}

	var res Result
	categories := map[string]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.Warn(ctx, "unable to read item row", "error", err)
			res.Skipped++
			continue
		}
		if len(record) < 4 {
			res.Skipped++
			continue
		}

		name := strings.TrimSpace(record[0])
		categoryName := strings.TrimSpace(record[3])
		if name == "" || categoryName == "" {
			res.Skipped++
			continue
		}

		categoryID, ok := categories[categoryName]
		if !ok {
			c, err := l.admin.EnsureCategory(ctx, storeID, categoryName)
			if err != nil {
				return res, err
			}
			categoryID = c.ID
			categories[categoryName] = categoryID
		}

		_, err = l.ledger.CreateItem(ctx, actor, ledger.CreateItemInput{
			Name:       name,
			Price:      record[1],
			Quantity:   record[2],
			CategoryID: categoryID,
			StoreID:    storeID,
		})
		if err != nil {
			if _, ok := domain.Message(err); ok {
				l.logger.Warn(ctx, "unable to seed item", "name", name, "error", err)
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Created++
	}

	l.logger.Info(ctx, "seeded item catalog", "store_id", storeID, "created", res.Created, "skipped", res.Skipped)
	return res, nil
}
