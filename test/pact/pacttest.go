//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "storefront-api"
	ConsumerName = "storefront-web"

	StateCatalogBaseline = "catalog baseline"
	StateProductExists   = "product p-101 exists with stock"
	StateProductMissing  = "no product with id p-404"

	// TokenSecret signs the bearer tokens minted by the provider's request filter.
	TokenSecret = "pact-secret"
)

const (
	ExistingProductID = "p-101"
	MissingProductID  = "p-404"

	CustomerID    = "u-pact"
	CustomerEmail = "pact.customer@example.com"

	// PlaceholderToken is recorded in the pact; the provider swaps it for a freshly signed token.
	PlaceholderToken = "Bearer pact-placeholder"
)

const (
	exampleProductName  = "Pact Ceramic Mug"
	exampleProductPrice = 120000
	exampleProductStock = 5
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront web consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleProduct describes the product seeded for StateProductExists.
func ExampleProduct() (id, name string, price int64, stock int) {
	return ExistingProductID, exampleProductName, exampleProductPrice, exampleProductStock
}

// ExampleOrderPayload provides a checkout body for the seeded product.
func ExampleOrderPayload() map[string]any {
	return map[string]any{
		"email": CustomerEmail,
		"orderItems": []map[string]any{
			{"product": ExistingProductID, "name": exampleProductName, "amount": 2, "price": exampleProductPrice},
		},
		"shippingAddress": map[string]any{
			"fullName": "Pact Customer",
			"address":  "12 Le Loi",
			"city":     "Hue",
			"phone":    "0900000000",
		},
		"delivery":      "standard",
		"paymentMethod": "cod",
		"itemsPrice":    2 * exampleProductPrice,
		"shippingPrice": 20000,
		"taxPrice":      0,
		"totalPrice":    2*exampleProductPrice + 20000,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
