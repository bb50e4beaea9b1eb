package insight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Department", "department"},
		{"  Years At Company ", "years_at_company"},
		{"SALARY", "salary"},
		{"promotion_ready", "promotion_ready"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NormalizeColumn(tt.in))
	}
}

func TestParse(t *testing.T) {
	tbl, err := Parse(strings.NewReader("\ufeffName, Department ,Salary\nann,A,100\nbob,B\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"name", "department", "salary"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())

	col, ok := tbl.Column("Salary")
	require.True(t, ok)
	require.Equal(t, 2, col.Len())
	require.Equal(t, int64(100), tbl.Record(0)["salary"])
	require.Nil(t, tbl.Record(1)["salary"])

	_, ok = tbl.Column("attrition")
	require.False(t, ok)
}

func TestParseMalformed(t *testing.T) {
	inputs := []string{
		"",
		"a,b\n1,2,3\n",
		"a,b\n\"unterminated,2\n",
	}
	for _, in := range inputs {
		_, err := Parse(strings.NewReader(in))
		require.ErrorIs(t, err, appErr.ErrInvalid, in)
	}
}

func TestHeadAndRender(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("id,dept\n")
	for i := 0; i < 40; i++ {
		sb.WriteString("e")
		sb.WriteString(strings.Repeat("x", i%3))
		sb.WriteString(",D\n")
	}
	tbl, err := Parse(strings.NewReader(sb.String()))
	require.NoError(t, err)
	require.Equal(t, 40, tbl.Len())

	head := tbl.Head(30)
	require.Equal(t, 30, head.Len())
	require.Equal(t, 40, tbl.Len())
	require.Same(t, tbl, tbl.Head(100))

	out := head.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 31)
	require.Contains(t, lines[0], "id")
	require.Contains(t, lines[0], "dept")
	require.True(t, strings.HasPrefix(strings.TrimSpace(lines[30]), "29"))
}

func TestColumnFloats(t *testing.T) {
	tbl, err := Parse(strings.NewReader("salary,bonus\n100,x\n,1\n200.5,2\nNaN,3\n"))
	require.NoError(t, err)

	col, _ := tbl.Column("salary")
	values, ok := col.Floats()
	require.True(t, ok)
	require.Equal(t, []float64{100, 200.5}, values)

	col, _ = tbl.Column("bonus")
	_, ok = col.Floats()
	require.False(t, ok)
}
