package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/returnsdesk/internal/core"
	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

func byHeader(ms []core.ColumnMapping) map[string]core.ColumnMapping {
	out := make(map[string]core.ColumnMapping, len(ms))
	for _, m := range ms {
		out[m.OriginalName] = m
	}
	return out
}

// ----------------------------------------------------------------------------
// Single header matches
// ----------------------------------------------------------------------------

func TestPropose_HeaderVariants(t *testing.T) {
	fields := schema.GetSchema(schema.ReturnedPart)

	tests := []struct {
		header string
		want   string
	}{
		{"Part #", "partNumber"},
		{"PartNumber", "partNumber"},
		{"part_number", "partNumber"},
		{"PART-NUMBER", "partNumber"},
		{"P/N", "partNumber"},
		{"Part Name", "partName"},
		{"Custmer Name", "customerName"},
		{"Order #", "orderNumber"},
		{"Ship Date", "shippedDate"},
		{"ETA", "expectedArrival"},
		{"Tracking Numbers", "trackingNumber"},
		{"E-mail", "customerEmail"},
		{"Reason for Return", "returnReason"},
		{"Unrelated Column XYZ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := ProposeMappings([]string{tt.header}, nil, fields)
			require.Len(t, got, 1)
			assert.Equal(t, tt.header, got[0].OriginalName)
			assert.Equal(t, tt.want, got[0].MappedTo)
			if tt.want == "" {
				assert.Zero(t, got[0].Confidence)
			} else {
				assert.Greater(t, got[0].Confidence, 0.0)
				assert.LessOrEqual(t, got[0].Confidence, 1.0)
			}
		})
	}
}

func TestPropose_ExactMatchHasFullConfidence(t *testing.T) {
	got := ProposeMappings([]string{"partNumber"}, nil, schema.GetSchema(schema.ReturnedPart))
	assert.Equal(t, 1.0, got[0].Confidence)
}

// ----------------------------------------------------------------------------
// Whole sheet
// ----------------------------------------------------------------------------

func TestPropose_Sheet(t *testing.T) {
	headers := []string{"Unrelated Column XYZ", "Part Name", "Part #", "Custmer", "Order #", "Tracking", "Ship Date"}
	rows := []core.RawRow{
		{"Part Name": "Pump Seal", "Part #": "HP-2210", "Unrelated Column XYZ": ""},
		{"Part Name": "", "Part #": "CB-0917"},
		{"Part Name": "Gasket", "Part #": "GK-1"},
		{"Part Name": "Valve", "Part #": "VL-7"},
	}

	got := ProposeMappings(headers, rows, schema.GetSchema(schema.ReturnedPart))
	require.Len(t, got, len(headers))

	m := byHeader(got)
	assert.Equal(t, "partName", m["Part Name"].MappedTo)
	assert.Equal(t, "partNumber", m["Part #"].MappedTo)
	assert.Equal(t, "customerName", m["Custmer"].MappedTo)
	assert.Equal(t, "orderNumber", m["Order #"].MappedTo)
	assert.Equal(t, "trackingNumber", m["Tracking"].MappedTo)
	assert.Equal(t, "shippedDate", m["Ship Date"].MappedTo)
	assert.Equal(t, "", m["Unrelated Column XYZ"].MappedTo)

	// Sorted by descending confidence, unmatched last.
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
	}
	assert.Equal(t, "Unrelated Column XYZ", got[len(got)-1].OriginalName)

	// Samples skip blanks and stop at three.
	assert.Equal(t, []string{"Pump Seal", "Gasket", "Valve"}, m["Part Name"].SampleValues)
	assert.Equal(t, []string{"HP-2210", "CB-0917", "GK-1"}, m["Part #"].SampleValues)
	assert.Empty(t, m["Unrelated Column XYZ"].SampleValues)
	assert.NotNil(t, m["Unrelated Column XYZ"].SampleValues)
}

func TestPropose_EachFieldUsedOnce(t *testing.T) {
	headers := []string{"Part Name", "Part Number", "Part No", "Part Num"}
	got := ProposeMappings(headers, nil, schema.GetSchema(schema.ReturnedPart))

	m := byHeader(got)
	assert.Equal(t, "partName", m["Part Name"].MappedTo)
	assert.Equal(t, "partNumber", m["Part Number"].MappedTo)

	used := make(map[string]string)
	for _, c := range got {
		if c.MappedTo == "" {
			continue
		}
		prev, dup := used[c.MappedTo]
		assert.False(t, dup, "%s mapped from both %q and %q", c.MappedTo, prev, c.OriginalName)
		used[c.MappedTo] = c.OriginalName
	}
}

func TestPropose_TieGoesToEarlierHeader(t *testing.T) {
	got := ProposeMappings([]string{"Email", "E-mail"}, nil, schema.GetSchema(schema.ReturnedPart))

	m := byHeader(got)
	assert.Equal(t, "customerEmail", m["Email"].MappedTo)
	assert.Equal(t, "", m["E-mail"].MappedTo)
}

func TestPropose_Threshold(t *testing.T) {
	fields := schema.GetSchema(schema.ReturnedPart)

	strict := Mapper{Threshold: 0.01}.Propose([]string{"Custmer Name"}, nil, fields)
	assert.Equal(t, "", strict[0].MappedTo)

	loose := Mapper{Threshold: 0.3}.Propose([]string{"Custmer Name"}, nil, fields)
	assert.Equal(t, "customerName", loose[0].MappedTo)
}

func TestPropose_UnrelatedHeadersStayUnmapped(t *testing.T) {
	fields := schema.GetSchema(schema.ReturnedPart)

	for _, header := range []string{
		"Order Date",
		"Item Price",
		"Customer Phone",
		"Notebook",
		"Part Weight",
		"Shipping Cost",
	} {
		t.Run(header, func(t *testing.T) {
			got := ProposeMappings([]string{header}, nil, fields)
			assert.Equal(t, "", got[0].MappedTo)
			assert.Zero(t, got[0].Confidence)
		})
	}
}

func TestPropose_IdentifierSuffix(t *testing.T) {
	got := ProposeMappings([]string{"Client Ref"}, nil, schema.GetSchema(schema.ReturnedPart))
	assert.Equal(t, "customerName", got[0].MappedTo)
}

func TestPropose_SampleLimit(t *testing.T) {
	rows := []core.RawRow{{"Notes": "a"}, {"Notes": "b"}, {"Notes": "c"}}
	got := Mapper{SampleValues: 2}.Propose([]string{"Notes"}, rows, schema.GetSchema(schema.ReturnedPart))
	assert.Equal(t, []string{"a", "b"}, got[0].SampleValues)
}

// ----------------------------------------------------------------------------
// Scoring
// ----------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Part #", "partnumber"},
		{"part_number", "partnumber"},
		{"  Ship-Date ", "shipdate"},
		{"P/N", "pn"},
		{"STRASSE", "strasse"},
		{"orderNumber", "ordernumber"},
		{"Straße", "strasse"},
		{"!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.input), tt.input)
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0.0, Distance("partnumber", "partnumber"))
	assert.InDelta(t, 1.0/12.0, Distance("custmername", "customername"), 1e-9)

	assert.Equal(t, 0.0, Distance("Part #", "part_number"))

	// An identifier suffix scores through containment.
	assert.InDelta(t, 0.5*(1-8.0/15.0), Distance("Tracking Numbers", "Tracking"), 1e-9)

	// Short names do not score through containment.
	assert.Greater(t, Distance("po", "ponumberlong"), 0.4)

	// Any other extra word makes the names unrelated.
	assert.Equal(t, 1.0, Distance("Customer Phone", "Customer"))

	// Words must match one for one.
	assert.InDelta(t, 0.5, Distance("Customer Phone", "Customer Name"), 1e-9)
	assert.InDelta(t, 1.0/12.0, Distance("Custmer Name", "Customer Name"), 1e-9)

	// Containment never splits a word.
	assert.Greater(t, Distance("Notebook", "note"), 0.4)
}
