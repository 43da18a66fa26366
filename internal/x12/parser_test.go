package x12

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTarget850 is a complete, well-formed Target 850 purchase order used
// across the test suite.
const sampleTarget850 = "ISA*00*          *00*          *ZZ*TARGET         *ZZ*VENDORABC      *260219*1200*^*00501*000000042*0*P*>~" +
	"GS*PO*TGTBUY*VENDORABC*20260219*1200*42*X*005010~" +
	"ST*850*0001~" +
	"BEG*00*SA*TGT-2026-00042**20260219~" +
	"REF*DP*042~" +
	"DTM*002*20260305~" +
	"N1*ST*Target Store #1742*92*1742~" +
	"N3*700 Nicollet Mall~" +
	"N4*Minneapolis*MN*55402~" +
	"PO1*1*120*EA*24.99**UI*089541234567~" +
	"PO1*2*60*EA*49.99**UI*089599876543~" +
	"CTT*2~" +
	"SE*11*0001~" +
	"GE*1*42~" +
	"IEA*1*000000042~"

func TestParse_WellFormedInterchange(t *testing.T) {
	interchange, err := Parse(sampleTarget850)
	require.NoError(t, err)

	assert.Equal(t, "TARGET", interchange.SenderID)
	assert.Equal(t, "VENDORABC", interchange.ReceiverID)
	assert.Equal(t, "000000042", interchange.ControlNumber)
	assert.Equal(t, byte('*'), interchange.ElementDelimiter)
	assert.Equal(t, byte('>'), interchange.ComponentDelimiter)
	assert.Equal(t, byte('~'), interchange.SegmentTerminator)

	require.Len(t, interchange.Groups, 1)
	group := interchange.Groups[0]
	assert.Equal(t, "PO", group.FunctionalID)
	assert.Equal(t, "TGTBUY", group.SenderCode)
	assert.Equal(t, "42", group.ControlNumber)

	require.Len(t, group.Transactions, 1)
	txn := group.Transactions[0]
	assert.Equal(t, "850", txn.SetCode)
	assert.Equal(t, "0001", txn.ControlNumber)
	// BEG through CTT: envelope segments are not transaction content.
	assert.Len(t, txn.Segments, 9)
}

func TestParse_ElementAccessIsOneBased(t *testing.T) {
	interchange, err := Parse(sampleTarget850)
	require.NoError(t, err)

	beg := interchange.FirstTransaction().FindFirst("BEG")
	require.NotNil(t, beg)
	assert.Equal(t, "00", beg.Element(1))
	assert.Equal(t, "SA", beg.Element(2))
	assert.Equal(t, "TGT-2026-00042", beg.Element(3))
}

func TestParse_OutOfRangeElementReturnsEmpty(t *testing.T) {
	interchange, err := Parse(sampleTarget850)
	require.NoError(t, err)

	beg := interchange.FirstTransaction().FindFirst("BEG")
	assert.Equal(t, "", beg.Element(99))
	assert.Equal(t, "", beg.Element(0))
	assert.Equal(t, "", beg.Element(-1))
}

func TestParse_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n"} {
		_, err := Parse(input)
		require.Error(t, err)
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Message, "empty or null")
	}
}

func TestParse_TooShortInput(t *testing.T) {
	_, err := Parse("ISA*00*short~")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "too short")
	assert.Equal(t, "ISA", perr.SegmentID)
}

func TestParse_NoISA(t *testing.T) {
	// Long enough to pass the length gate but with no ISA anywhere.
	raw := strings.Repeat("GSX*AA*BB~", 20)
	_, err := Parse(raw)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParse_ContentBeforeISA(t *testing.T) {
	raw := "JUNK HEADER LINE\n" + sampleTarget850
	_, err := Parse(raw)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "must begin with an ISA segment")
}

func TestParse_NestingViolations(t *testing.T) {
	isa := "ISA*00*          *00*          *ZZ*TARGET         *ZZ*VENDORABC      *260219*1200*^*00501*000000042*0*P*>~"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "ST before GS",
			raw:  isa + "ST*850*0001~",
			want: "outside of GS envelope",
		},
		{
			name: "SE without ST",
			raw:  isa + "GS*PO*A*B*20260219*1200*42*X*005010~SE*2*0001~",
			want: "SE without a matching ST",
		},
		{
			name: "GE without GS",
			raw:  isa + "GE*1*42~",
			want: "GE without a matching GS",
		},
		{
			name: "content outside ST/SE",
			raw:  isa + "GS*PO*A*B*20260219*1200*42*X*005010~BEG*00*SA*PO-1**20260219~",
			want: "outside ST/SE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Message, tt.want)
			assert.Greater(t, perr.Line, 0)
		})
	}
}

func TestParse_ShortEnvelopeSegments(t *testing.T) {
	isa := "ISA*00*          *00*          *ZZ*TARGET         *ZZ*VENDORABC      *260219*1200*^*00501*000000042*0*P*>~"
	_, err := Parse(isa + "GS*PO*A~")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "GS", perr.SegmentID)
	assert.Contains(t, perr.Message, "at least 8 elements")
}

func TestParse_CRLFNormalization(t *testing.T) {
	raw := strings.ReplaceAll(sampleTarget850, "~", "~\r\n")
	interchange, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, interchange.Groups, 1)
	require.Len(t, interchange.Groups[0].Transactions, 1)
}
