package ldclump

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const reportSchema = `
CREATE TABLE Metadata (
	p_threshold REAL NOT NULL,
	r2_threshold REAL NOT NULL,
	max_distance INTEGER NOT NULL,
	threads INTEGER NOT NULL,
	n_input INTEGER NOT NULL,
	n_in_panel INTEGER NOT NULL,
	n_mismatched INTEGER NOT NULL,
	n_retained INTEGER NOT NULL,
	creation_time INTEGER NOT NULL
);
CREATE TABLE Clump (
	rsid TEXT PRIMARY KEY,
	chromosome TEXT NOT NULL,
	position INTEGER NOT NULL,
	p REAL NOT NULL,
	n_members INTEGER NOT NULL,
	mean_r2 REAL,
	max_r2 REAL
);
CREATE TABLE Member (
	index_rsid TEXT NOT NULL,
	rsid TEXT NOT NULL,
	chromosome TEXT NOT NULL,
	position INTEGER NOT NULL,
	p REAL NOT NULL,
	r2 REAL NOT NULL
);
CREATE INDEX member_index ON Member (index_rsid);
`

// Report is a clumping result stored in SQLite.
type Report struct {
	DB       *sqlx.DB
	Metadata *ReportMetadata
}

func (r *Report) Close() error {
	return r.DB.Close()
}

// ReportMetadata conforms to the single row of the "Metadata" table.
type ReportMetadata struct {
	PThreshold   float64 `db:"p_threshold"`
	R2Threshold  float64 `db:"r2_threshold"`
	MaxDistance  uint64  `db:"max_distance"`
	Threads      int     `db:"threads"`
	NInput       int     `db:"n_input"`
	NInPanel     int     `db:"n_in_panel"`
	NMismatched  int     `db:"n_mismatched"`
	NRetained    int     `db:"n_retained"`
	CreationTime Time    `db:"creation_time"`
}

// ClumpRow conforms to the rows of the "Clump" table. MeanR2 and MaxR2 are
// null for index variants without members.
type ClumpRow struct {
	RSID       string          `db:"rsid"`
	Chromosome string          `db:"chromosome"`
	Position   uint32          `db:"position"`
	P          float64         `db:"p"`
	NMembers   int             `db:"n_members"`
	MeanR2     sql.NullFloat64 `db:"mean_r2"`
	MaxR2      sql.NullFloat64 `db:"max_r2"`
}

// MemberRow conforms to the rows of the "Member" table.
type MemberRow struct {
	IndexRSID  string  `db:"index_rsid"`
	RSID       string  `db:"rsid"`
	Chromosome string  `db:"chromosome"`
	Position   uint32  `db:"position"`
	P          float64 `db:"p"`
	R2         float64 `db:"r2"`
}

func reportURI(path string) string {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		return "file:" + path
	}
	return path
}

// WriteReport stores res in a new SQLite database at path, replacing any
// file already there.
func WriteReport(path string, cfg Config, res *Result) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return pfx.Err(err)
	}

	db, err := openReportDB(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer db.Close()

	if _, err := db.Exec(reportSchema); err != nil {
		return pfx.Err(err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	md := ReportMetadata{
		PThreshold:   cfg.PThreshold,
		R2Threshold:  cfg.R2Threshold,
		MaxDistance:  cfg.MaxDistance,
		Threads:      cfg.Threads,
		NInput:       res.Stats.Input,
		NInPanel:     res.Stats.InPanel,
		NMismatched:  res.Stats.Mismatched,
		NRetained:    res.Stats.Retained,
		CreationTime: Time(time.Now()),
	}
	if _, err := tx.Exec(`INSERT INTO Metadata VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		md.PThreshold, md.R2Threshold, md.MaxDistance, md.Threads,
		md.NInput, md.NInPanel, md.NMismatched, md.NRetained, md.CreationTime.Unix()); err != nil {
		return pfx.Err(err)
	}

	for _, cl := range res.Clumps {
		row := clumpRow(cl)
		if _, err := tx.NamedExec(`INSERT INTO Clump VALUES (:rsid, :chromosome, :position, :p, :n_members, :mean_r2, :max_r2)`, row); err != nil {
			return pfx.Err(fmt.Errorf("writing clump %s: %w", row.RSID, err))
		}

		for _, m := range cl.Members {
			mr := MemberRow{
				IndexRSID:  cl.Index.ID,
				RSID:       m.Variant.ID,
				Chromosome: ChromosomeName(m.Variant.Chromosome),
				Position:   m.Variant.Position,
				P:          m.Variant.P,
				R2:         m.R2,
			}
			if _, err := tx.NamedExec(`INSERT INTO Member VALUES (:index_rsid, :rsid, :chromosome, :position, :p, :r2)`, mr); err != nil {
				return pfx.Err(fmt.Errorf("writing member %s of %s: %w", mr.RSID, mr.IndexRSID, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func clumpRow(cl Clump) ClumpRow {
	row := ClumpRow{
		RSID:       cl.Index.ID,
		Chromosome: ChromosomeName(cl.Index.Chromosome),
		Position:   cl.Index.Position,
		P:          cl.Index.P,
		NMembers:   len(cl.Members),
	}
	if len(cl.Members) == 0 {
		return row
	}

	r2 := make([]float64, len(cl.Members))
	for i, m := range cl.Members {
		r2[i] = m.R2
	}
	row.MeanR2 = sql.NullFloat64{Float64: stat.Mean(r2, nil), Valid: true}
	row.MaxR2 = sql.NullFloat64{Float64: floats.Max(r2), Valid: true}
	return row
}

// OpenReport opens a report written by WriteReport.
func OpenReport(path string) (*Report, error) {
	db, err := openReportDB(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	r := &Report{
		DB:       db,
		Metadata: &ReportMetadata{},
	}
	if err := r.DB.Get(r.Metadata, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return r, nil
}

// Clumps lists the index variants by chromosome and position.
func (r *Report) Clumps() ([]ClumpRow, error) {
	rows := make([]ClumpRow, 0)
	if err := r.DB.Select(&rows, "SELECT * FROM Clump ORDER BY rowid ASC"); err != nil {
		return nil, pfx.Err(err)
	}
	return rows, nil
}

// Members lists the variants assigned to the clump of indexID.
func (r *Report) Members(indexID string) ([]MemberRow, error) {
	rows := make([]MemberRow, 0)
	if err := r.DB.Select(&rows, "SELECT * FROM Member WHERE index_rsid=? ORDER BY rowid ASC", indexID); err != nil {
		return nil, pfx.Err(err)
	}
	return rows, nil
}

func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}
