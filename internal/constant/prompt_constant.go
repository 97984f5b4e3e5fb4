package constant

const (
	// RecognitionPrompt is sent together with the invoice photo.
	RecognitionPrompt = `You are a document processing assistant. Analyse this image of a supplier invoice (the document is usually in Ukrainian). Extract:
- "supplier" (supplier name)
- "total_amount" (the total of the whole invoice, from the "Разом" field, as a number)
- "items" (array of line items)

For every element of "items" return:
- "name" (product name exactly as printed)
- "quantity" (quantity, as a number)
- "unit" (unit of measure as a string, e.g. "кг", "шт", "л")
- "sum" (the line total from the "Сума" column, as a number). This is the most important field.

Return a strict JSON object. No comments, no markdown, only JSON.`

	// MatchingPrompt takes the invoice items and the catalog, both JSON encoded.
	MatchingPrompt = `You are an expert in matching product nomenclature. Match the products of a supplier invoice with the products of our catalog as precisely as possible.

Invoice items (each has a "normalized_name" prepared for matching): %s

The FULL catalog (also with normalized fields): %s

Matching rules:
1. Compare "normalized_name" of the invoice item with "normalized_name" and "normalized_synonyms" of the catalog products.
2. Be very flexible. Tolerate typos, different word order, transliteration (gold/голд) and abbreviations ("кава" and "кофе"). Look for the logical correspondence even when the text differs. For example "кава смажена gold 1кг опт" MUST match "кава gold 1 кг".
3. For every invoice item you matched confidently, change exactly two fields: "product_id" (taken from the catalog) and "match_status" (set to "matched_by_ai"). Leave all other items untouched.

Response format:
Return the COMPLETE array of invoice items in the original order and structure, with "product_id" and "match_status" updated for the matched items. Only the JSON array, no comments and no markdown.`
)
