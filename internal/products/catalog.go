package product

import "github.com/shopspring/decimal"

type starterProduct struct {
	name        string
	price       int64
	category    string
	description string
	image       string
}

var starterProducts = []starterProduct{
	{"Pink Velvet Lipstick", 499, "Lipstick", "A smooth, matte pink lipstick for a perfect look.", "https://images.unsplash.com/photo-1586776977607-310e9c725c37?w=500&q=80"},
	{"Rose Glow Blush", 799, "Blush", "Give your cheeks a natural rose glow.", "https://images.unsplash.com/photo-1596462502278-27bfdc4033c8?w=500&q=80"},
	{"Ocean Blue Eyeliner", 299, "Eyeliner", "Waterproof eyeliner in a stunning ocean blue shade.", "https://images.unsplash.com/photo-1625093742435-6fa192b6fb10?w=500&q=80"},
	{"Lavender Face Cream", 1299, "Skincare", "Soothing face cream with lavender extracts.", "https://images.unsplash.com/photo-1556229010-6c3f2c9ca5f8?w=500&q=80"},
	{"Golden Shimmer Eyeshadow", 599, "Eyeshadow", "Sparkle all night with this golden eyeshadow.", "https://images.unsplash.com/photo-1512496015851-a90fb38ba796?w=500&q=80"},
	{"Berry Lip Gloss", 349, "Lipstick", "Shiny berry gloss for juicy lips.", "https://images.unsplash.com/photo-1599733589046-10c005739ef0?w=500&q=80"},
	{"Elegant Pearl Necklace", 1499, "Jewellery", "Beautiful pearl necklace for special occasions.", "https://images.unsplash.com/photo-1535632066927-ab7c9ab60908?w=500&q=80"},
	{"Crystal Drop Earrings", 899, "Jewellery", "Sparkling crystal earrings to match any outfit.", "https://images.unsplash.com/photo-1535632787350-4e68ef0ac584?w=500&q=80"},
	{"Aloe Vera Facewash", 199, "Facewash", "Gentle aloe vera facewash for all skin types.", "https://images.unsplash.com/photo-1556228578-0d85b1a4d571?w=500&q=80"},
	{"Charcoal Face Scrub", 299, "Facewash", "Deep cleaning charcoal scrub for clear skin.", "https://images.unsplash.com/photo-1556229162-5c63ed9c4efb?w=500&q=80"},
	{"Handmade Lavender Soap", 149, "Soap", "Organic lavender soap for a soothing bath.", "https://images.unsplash.com/photo-1600857062241-98e5dba7f214?w=500&q=80"},
	{"Saffron Glow Soap", 199, "Soap", "Traditional saffron soap for glowing skin.", "https://images.unsplash.com/photo-1600857544200-b2f666a992ec?w=500&q=80"},
}

// StarterCatalog is the catalog inserted into an empty products table.
func StarterCatalog() []CreateProductInput {
	out := make([]CreateProductInput, 0, len(starterProducts))
	for _, p := range starterProducts {
		out = append(out, CreateProductInput{
			Name:        p.name,
			Price:       decimal.NewFromInt(p.price),
			Category:    p.category,
			Description: p.description,
			ImageURL:    p.image,
		})
	}
	return out
}
