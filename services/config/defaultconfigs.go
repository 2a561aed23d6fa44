package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board ID (the value passed to WithDevice)
// Val: raw JSON bytes for that board
// -----------------------------------------------------------------------------

const cfgSDChanger = `{
  "hal": {
    "devices": [
      {
        "id": "changer0",
        "type": "sdchanger",
        "bus_ref": {"type": "i2c", "id": "i2c0"},
        "params": {"addr_a": 38, "addr_b": 36, "exclusive_select": false, "sample_every_ms": 1000}
      }
    ]
  },
  "console": {
    "prompt": "sd> ",
    "capability_id": 0
  }
}`

var embeddedConfigs = map[string][]byte{
	"sdchanger": []byte(cfgSDChanger),
}
