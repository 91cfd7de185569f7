package services

import (
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// GalleryBlock renders records as an image or card grid.
type GalleryBlock struct{}

func (b *GalleryBlock) Type() constants.BlockType {
	return constants.BlockTypeGallery
}

func (b *GalleryBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	props := in.Block.Props
	imageField := GetConfigString(props, "imageField")
	titleField := GetConfigString(props, "titleField")
	descField := GetConfigString(props, "descriptionField")

	items := make([]map[string]interface{}, 0, len(in.Records))
	for _, rec := range in.Records {
		item := map[string]interface{}{
			"id": rec.Get(constants.FieldID),
		}
		if imageField != "" {
			item["image"] = rec.Get(imageField)
		}
		if titleField != "" {
			item["title"] = rec.Get(titleField)
		}
		if descField != "" {
			item["description"] = rec.Get(descField)
		}
		items = append(items, item)
	}

	return map[string]interface{}{
		"items":   items,
		"columns": GetConfigInt(props, "columns", 3),
	}, nil
}
