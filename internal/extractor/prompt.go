package extractor

// TaskExtractionPrompt instructs the model to pull line-item tasks out of a
// proposal document and return them as raw JSON.
const TaskExtractionPrompt = `You are extracting work line items from a freelance proposal or statement of work.

Read the document and return every task, deliverable or line item you find.

Return ONLY a raw JSON object with this exact structure, no markdown fences, no commentary:

{
  "tasks": [
    {
      "name": "short task name as written in the document",
      "description": "full description of the work, empty string if none",
      "category": "category or section heading the task appears under, empty string if none",
      "amount": 0,
      "estimated_hours": 0,
      "actual_hours": 0,
      "hourly_rate": 0
    }
  ]
}

Rules:
- "amount" is the price of the task in the document's currency, as a number without symbols or thousands separators.
- "estimated_hours", "actual_hours" and "hourly_rate" are numbers; use 0 when the document does not state them.
- Keep names exactly as written, do not paraphrase or translate.
- If the document carries extra per-task fields (e.g. a phase, a due date, a unit count), include them as additional JSON keys on the task.
- If no tasks can be found, return {"tasks": []}.`
