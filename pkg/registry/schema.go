package registry

// registrySchema validates registry documents before unmarshalling. Weight
// values are bounded to [0,1] to match the normalized score space.
const registrySchema = `{
  "type": "object",
  "required": ["answerValues", "profiles"],
  "properties": {
    "answerValues": {
      "type": "object",
      "additionalProperties": {"type": "integer", "minimum": 0}
    },
    "profiles": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "interestWeights": {
            "type": "object",
            "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
          },
          "personalityWeights": {
            "type": "object",
            "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
          }
        }
      }
    }
  }
}`
