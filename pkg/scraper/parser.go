package scraper

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jojapi/border-gates/pkg/gates"
)

// Parse extracts the gate data matrix from the upstream HTML page.
//
// The first <table> in the document is the data source; each <tr> becomes
// one row of <td> cell texts, trimmed of surrounding whitespace. Rows
// without any <td> cells (header rows use <th>) and rows whose cells are
// all blank are skipped. An absent table yields KindNoTable; a table that
// produces no rows yields KindNoData.
func Parse(html []byte) (gates.Matrix, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, &Error{Kind: KindNoTable, Message: "parsing HTML", Err: err}
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &Error{Kind: KindNoTable, Message: "no data table found on the source page"}
	}

	matrix := make(gates.Matrix, 0)
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}

		row := make(gates.Row, 0, cells.Length())
		blank := true
		cells.Each(func(j int, td *goquery.Selection) {
			text := strings.TrimSpace(td.Text())
			if text != "" {
				blank = false
			}
			row = append(row, text)
		})

		// Decorative spacer rows carry cells but no content.
		if blank {
			return
		}
		matrix = append(matrix, row)
	})

	if len(matrix) == 0 {
		return nil, &Error{Kind: KindNoData, Message: "no border gate data found in the table"}
	}

	return matrix, nil
}
