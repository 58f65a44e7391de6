package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CSV fixtures, one per processing domain.
const (
	SalesCSV = `Order ID,Product,Quantity Ordered,Price Each,Order Date
1001,USB-C Cable,10,100,2023-01-01
1002,Monitor,20,200,2023-01-07
1003,Headphones,5,50,2023-02-14
`

	HRCSV = `employeeID,name,department
2,Bob,Finance
1,Alice,HR
3,Carol,Sales
`

	CRMCSV = `invoiceID,invoice_date,customerID,country,quantity,amount
INV-1,2022-03-01,C1,France,2,20.5
INV-2,2022-07-15,C2,Germany,1,10
INV-3,2023-01-10,C1,France,3,30
INV-4,2023-05-02,C3,France,4,40.25
`

	FinanceCSV = `Brand,Revenue,Units Sold
Samsung,1500,75
Apple,1000,50
Xiaomi,800,120
`

	SupplyChainCSV = `Product,Brand,Stock
Widget,BrandA,50
Gadget,BrandB,75
Gizmo,BrandC,10
`
)

// WriteFixture writes content to name inside the test's temporary directory
// and returns the full path.
func WriteFixture(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
