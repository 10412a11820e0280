package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
)

// StockIndexer keeps the stock field of product documents in line with the database.
type StockIndexer struct {
	Client *elasticsearch.Client
	Index  string
}

func NewStockIndexer(client *elasticsearch.Client, index string) *StockIndexer {
	return &StockIndexer{Client: client, Index: index}
}

// SyncStock partially updates each product document. Products that are not
// indexed are skipped. All updates are attempted; the errors are joined.
func (s *StockIndexer) SyncStock(ctx context.Context, stock map[int64]int64) error {
	ids := make([]int64, 0, len(stock))
	for id := range stock {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var errs []error
	for _, id := range ids {
		if err := s.updateStock(ctx, id, stock[id]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *StockIndexer) updateStock(ctx context.Context, productID, stock int64) error {
	body := map[string]any{"doc": map[string]any{"stock": stock}}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("es: encode update for product %d: %w", productID, err)
	}

	res, err := s.Client.Update(s.Index, strconv.FormatInt(productID, 10), &buf,
		s.Client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: update product %d: %w", productID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("es: update product %d: %s: %s", productID, res.Status(), msg)
	}
	return nil
}
