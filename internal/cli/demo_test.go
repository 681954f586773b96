package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/store"
)

var demoLines = []string{
	"My 1 favorite programming language is C#",
	"My 2 favorite programming language is TypeScript",
	"My 3 favorite programming language is F#",
	"My 4 favorite programming language is JavaScript",
	"My 5 favorite programming language is GoLang",
	"The first CD i bought was Sabaton",
	"The released was October 3 1995",
	"The price was $9.99",
	"Has value = False, value = 0",
	"Has value = True, value = 77",
	"The self-titled album is Deftones was released on May, 20 2003",
}

func TestDemoText(t *testing.T) {
	out, err := execute(t, NewDemoCommand(&RootOptions{Format: "text"}))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(demoLines, "\n")+"\n", out)
}

func TestDemoJSON(t *testing.T) {
	out, err := execute(t, NewDemoCommand(&RootOptions{Format: "json"}))
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   DemoOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.RunID)
	assert.Equal(t, demoLines, resp.Data.Lines)
}

func TestDemoRejectsArgs(t *testing.T) {
	_, err := execute(t, NewDemoCommand(&RootOptions{Format: "text"}), "extra")
	require.Error(t, err)
}

func TestDemoRecordsToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "decon.db")
	out, err := execute(t, NewDemoCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Data DemoOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, resp.Data.RunID)
	require.NoError(t, err)
	assert.Equal(t, "demo", run.Label)

	recs, err := st.ReadDeconstructions(ctx, resp.Data.RunID)
	require.NoError(t, err)
	require.Len(t, recs, 9)
	for i, rec := range recs {
		assert.Equal(t, int64(i+1), rec.Seq)
	}
	assert.Equal(t, "map<string,int>", recs[0].Type)
	assert.Equal(t, "Album", recs[5].Type)
	assert.Equal(t, "assign", recs[7].Mode)
	assert.Equal(t, []string{"intrinsic:CompactDisc/2"}, recs[8].Resolved)
}

func TestDemoSpecs(t *testing.T) {
	set, err := demoSpecs()
	require.NoError(t, err)

	album, ok := set.Record("Album")
	require.True(t, ok)
	assert.Len(t, album.Fields, 4)

	disc, ok := set.Record("CompactDisc")
	require.True(t, ok)
	assert.True(t, disc.Positional)
	assert.NotEmpty(t, set.Extensions)
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9.99", "$9.99"},
		{"12.5", "$12.50"},
		{"3", "$3.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, currency(ir.MustDecimal(tt.in)))
		})
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "True", title(ir.IRBool(true)))
	assert.Equal(t, "False", title(ir.IRBool(false)))
}
