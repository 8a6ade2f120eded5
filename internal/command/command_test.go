package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToggle(t *testing.T) {
	cmd, err := Parse(`{"Method":"ToggleApp"}`)
	require.NoError(t, err)

	assert.Equal(t, ToggleApp, cmd.Kind)
	assert.Nil(t, cmd.Payload.Position)
	assert.False(t, cmd.Payload.SelectAll)
}

func TestParseShowWithMouseScreen(t *testing.T) {
	cmd, err := Parse(`{"Method":"ShowApp","Data":{"Position":{"X":100,"Y":200,"Type":"MouseScreen"},"SelectAll":true}}`)
	require.NoError(t, err)

	assert.Equal(t, ShowApp, cmd.Kind)
	require.NotNil(t, cmd.Payload.Position)
	assert.Equal(t, OriginCursorMonitor, cmd.Payload.Position.Origin)
	assert.Equal(t, 100.0, cmd.Payload.Position.X)
	assert.Equal(t, 200.0, cmd.Payload.Position.Y)
	assert.True(t, cmd.Payload.SelectAll)
}

func TestParseOtherPositionTypeIsNotCursorMonitor(t *testing.T) {
	cmd, err := Parse(`{"Method":"ShowApp","Data":{"Position":{"X":5,"Y":6,"Type":"LastLocation"}}}`)
	require.NoError(t, err)

	require.NotNil(t, cmd.Payload.Position)
	assert.Equal(t, OriginOther, cmd.Payload.Position.Origin)
	assert.Equal(t, "LastLocation", cmd.Payload.Position.Type)
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	cmd, err := Parse(`{"Id":"abc","Method":"ShowApp","Type":"WebsocketMsgTypeRequest","Data":{"QueryId":"1","SelectAll":false}}`)
	require.NoError(t, err)

	assert.Equal(t, ShowApp, cmd.Kind)
	assert.False(t, cmd.Payload.SelectAll)
}

func TestParseLooseTypes(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		selectAll bool
		position  bool
	}{
		{"select all as string", `{"Method":"ShowApp","Data":{"SelectAll":"true"}}`, false, false},
		{"data not an object", `{"Method":"ShowApp","Data":[1,2]}`, false, false},
		{"position not an object", `{"Method":"ShowApp","Data":{"Position":"center"}}`, false, false},
		{"non numeric coordinates", `{"Method":"ShowApp","Data":{"Position":{"X":"a","Y":3,"Type":"MouseScreen"}}}`, false, false},
		{"missing y", `{"Method":"ShowApp","Data":{"Position":{"X":1,"Type":"MouseScreen"}}}`, false, false},
		{"missing type", `{"Method":"ShowApp","Data":{"Position":{"X":1,"Y":2}}}`, false, false},
		{"numeric type", `{"Method":"ShowApp","Data":{"Position":{"X":1,"Y":2,"Type":0}}}`, false, false},
		{"position skipped, select all kept", `{"Method":"ShowApp","Data":{"Position":{"X":null,"Y":2,"Type":"MouseScreen"},"SelectAll":true}}`, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, ShowApp, cmd.Kind)
			assert.Equal(t, tt.selectAll, cmd.Payload.SelectAll)
			assert.Equal(t, tt.position, cmd.Payload.Position != nil)
		})
	}
}

func TestParseUnknownMethod(t *testing.T) {
	for _, raw := range []string{
		`{"Method":"HideApp"}`,
		`{"Method":42}`,
		`{}`,
		`{"method":"ToggleApp"}`,
	} {
		cmd, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Unknown, cmd.Kind, raw)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{
		``,
		`not json`,
		`{"Method":"ToggleApp"`,
		`["ToggleApp"]`,
		`"ToggleApp"`,
		`null`,
	} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ToggleApp", ToggleApp.String())
	assert.Equal(t, "ShowApp", ShowApp.String())
	assert.Equal(t, "Unknown", Unknown.String())
}
