package store

import "petcache/internal/models"

// Evict returns a copy of doc with inline image data dropped where losing it
// costs the least, and the number of values dropped. Records themselves are
// never removed.
//
// Pass one nulls every inline preview. Pass two drops inline original and
// processed images of records that already hold a durable reference for the
// same picture.
func Evict(doc *models.Document) (*models.Document, int) {
	reduced := doc.Clone()
	dropped := 0

	for _, rec := range reduced.Records {
		for style, v := range rec.Previews {
			if models.IsInlineData(v) {
				rec.Previews[style] = nil
				dropped++
			}
		}
	}

	for _, rec := range reduced.Records {
		img := &rec.Image
		if models.IsInlineData(img.Original) && (models.IsDurableRef(img.CanonicalURL) || models.IsDurableRef(img.Processed)) {
			img.Original = nil
			dropped++
		}
		if models.IsInlineData(img.Processed) && models.IsDurableRef(img.CanonicalURL) {
			img.Processed = nil
			dropped++
		}
	}

	return reduced, dropped
}
