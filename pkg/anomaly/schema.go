package anomaly

// envelopeSchema is the JSON Schema for the result envelope handed to
// artifact-producing collaborators. The anomalies_normalized key is required
// unconditionally: a payload without it is invalid even when the run found
// nothing.
const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["anomalies_normalized"],
  "properties": {
    "anomalies_normalized": {
      "type": "array",
      "items": {"$ref": "#/$defs/normalized_anomaly"}
    }
  },
  "$defs": {
    "normalized_anomaly": {
      "type": "object",
      "required": [
        "id", "policy", "metric", "severity", "direction",
        "value", "threshold", "unit", "evidence_keys", "summary"
      ],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "policy": {"type": "string", "minLength": 1},
        "metric": {"type": "string", "minLength": 1},
        "severity": {"enum": ["info", "warning", "critical"]},
        "direction": {"enum": ["high", "low"]},
        "value": {"type": "number"},
        "threshold": {
          "type": "object",
          "required": ["warning", "critical"],
          "properties": {
            "warning": {"type": "number"},
            "critical": {"type": "number"}
          }
        },
        "unit": {"type": "string"},
        "evidence_keys": {
          "type": "array",
          "items": {"type": "string"}
        },
        "summary": {"type": "string", "minLength": 1}
      }
    }
  }
}`
