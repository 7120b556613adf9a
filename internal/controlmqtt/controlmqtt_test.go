package controlmqtt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandTopic(t *testing.T) {
	t.Parallel()

	t.Run("valid topic", func(t *testing.T) {
		t.Parallel()
		u, name, err := parseCommandTopic("dmx/3/kitchen/set")
		require.NoError(t, err)
		assert.Equal(t, uint16(3), u)
		assert.Equal(t, "kitchen", name)
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		t.Parallel()
		bad := []string{
			"dmx/3/kitchen/state",
			"dmx/3/set",
			"lights/3/kitchen/set",
			"dmx/x/kitchen/set",
			"dmx/70000/kitchen/set",
		}
		for _, topic := range bad {
			_, _, err := parseCommandTopic(topic)
			assert.Error(t, err, topic)
		}
	})
}

func TestCommandPayloadDecoding(t *testing.T) {
	t.Parallel()

	t.Run("absent fields stay nil", func(t *testing.T) {
		t.Parallel()
		var p CommandPayload
		require.NoError(t, json.Unmarshal([]byte(`{"brightness":128}`), &p))
		require.NotNil(t, p.Brightness)
		assert.Equal(t, uint8(128), *p.Brightness)
		assert.Nil(t, p.State)
		assert.Nil(t, p.Color)
		assert.Nil(t, p.Transition)
	})

	t.Run("full payload", func(t *testing.T) {
		t.Parallel()
		var p CommandPayload
		body := `{"state":"ON","brightness":200,"color":{"r":255,"g":10,"b":0},"white_value":5,"color_temp":300,"transition":1.5}`
		require.NoError(t, json.Unmarshal([]byte(body), &p))
		assert.Equal(t, "ON", *p.State)
		assert.Equal(t, RGB{R: 255, G: 10, B: 0}, *p.Color)
		assert.Equal(t, uint8(5), *p.WhiteValue)
		assert.Equal(t, 300, *p.ColorTemp)
		assert.Equal(t, 1.5, *p.Transition)
	})
}

func TestStatePayloadEncoding(t *testing.T) {
	t.Parallel()

	w := uint8(40)
	body, err := json.Marshal(StatePayload{State: "ON", Brightness: 128, WhiteValue: &w})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"ON","brightness":128,"white_value":40}`, string(body))
}
