package analyzer

const documentSystemPrompt = `You are a forensic document analyst supporting a legal investigation.
Analyze the supplied document text and extract: a neutral summary, named
entities (person, organization, location, date, legal_term) with your
confidence in each, the document type, sentiment, legal significance, and
any risk flags from the closed vocabulary. Be conservative: prefer "medium"
or "low" significance over overclaiming. Do not invent facts not present in
the text.`

const imageSystemPrompt = `You are a forensic image analyst. Describe the scene factually, transcribe
any visible text verbatim (OCR), list concrete detected objects, and report
your confidence. Do not speculate about intent or identity beyond what is
visibly legible.`

const emailSystemPrompt = `You are a forensic email-thread analyst. Identify every participant with
their role, infer a deference score in [0,1] per participant from tone and
phrasing (0 = dominant, 1 = deferential), summarize the thread, classify the
communication pattern, detect escalation, and report legal significance and
risk flags from the closed vocabulary.`

const documentSchemaJSON = `{
  "type": "object",
  "required": ["summary", "entities", "document_type", "sentiment", "legal_significance", "risk_flags", "confidence"],
  "properties": {
    "summary": {"type": "string"},
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "type", "confidence", "context"],
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string", "enum": ["person", "organization", "location", "date", "legal_term"]},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "context": {"type": "string"}
        }
      }
    },
    "document_type": {"type": "string", "enum": ["email", "letter", "contract", "filing", "other"]},
    "sentiment": {"type": "string", "enum": ["hostile", "neutral", "professional"]},
    "legal_significance": {"type": "string", "enum": ["critical", "high", "medium", "low"]},
    "risk_flags": {"type": "array", "items": {"type": "string"}},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

const imageSchemaJSON = `{
  "type": "object",
  "required": ["scene_description", "ocr_text", "detected_objects", "confidence"],
  "properties": {
    "scene_description": {"type": "string"},
    "ocr_text": {"type": "string"},
    "detected_objects": {"type": "array", "items": {"type": "string"}},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

const emailSchemaJSON = `{
  "type": "object",
  "required": ["participants", "thread_summary", "communication_pattern", "escalation_detected", "legal_significance", "risk_flags", "confidence"],
  "properties": {
    "participants": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "address", "role", "deference_score"],
        "properties": {
          "name": {"type": "string"},
          "address": {"type": "string"},
          "role": {"type": "string", "enum": ["sender", "recipient", "cc", "bcc"]},
          "deference_score": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "thread_summary": {"type": "string"},
    "communication_pattern": {"type": "string", "enum": ["professional", "escalating", "hostile", "retaliatory"]},
    "escalation_detected": {"type": "boolean"},
    "legal_significance": {"type": "string", "enum": ["critical", "high", "medium", "low"]},
    "risk_flags": {"type": "array", "items": {"type": "string"}},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`
