package internal

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/gin-gonic/gin"
)

/* ===================== CSV EXPORT ===================== */

// BuildCSV renders header + rows with RFC quoting (embedded quotes doubled,
// comma-bearing fields wrapped).
func BuildCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sendCSV(c *gin.Context, filename string, doc []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, "text/csv; charset=utf-8", doc)
}

var identityCSVHeader = []string{"id", "email", "name", "role", "status", "verified", "created_at"}

func identityCSVRow(u Identity) []string {
	return []string{
		strconv.Itoa(u.ID),
		u.Email,
		u.Name,
		u.Role,
		u.Status,
		strconv.FormatBool(u.EmailVerifiedAt != nil),
		isoTime(u.CreatedAt),
	}
}

var listingCSVHeader = []string{"id", "org_id", "title", "sport", "status", "applications", "created_at"}

func listingCSVRow(l Listing) []string {
	return []string{
		strconv.Itoa(l.ID),
		strconv.Itoa(l.OrgID),
		l.Title,
		l.Sport,
		l.Status,
		strconv.Itoa(l.ApplicationCount),
		isoTime(l.CreatedAt),
	}
}
