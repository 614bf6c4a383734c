package activity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category adalah jenis aksi yang dicatat pada log aktivitas.
type Category string

// Kategori yang dikenal.
const (
	CategoryAll    Category = "ALL"
	CategoryCreate Category = "CREATE"
	CategoryUpdate Category = "UPDATE"
	CategoryDelete Category = "DELETE"
	CategoryLogin  Category = "LOGIN"
	CategoryLogout Category = "LOGOUT"
)

// EntityType adalah jenis konten yang menjadi sasaran aksi.
type EntityType string

// Jenis entitas yang dikenal. Nilai kosong berarti semua entitas.
const (
	EntityAll        EntityType = ""
	EntityProfile    EntityType = "profil"
	EntityNews       EntityType = "berita"
	EntityGallery    EntityType = "galeri"
	EntityProduct    EntityType = "produk"
	EntityContact    EntityType = "kontak"
	EntityAspiration EntityType = "aspirasi"
	EntityAdmin      EntityType = "admin"
	EntityOther      EntityType = "lainnya"
)

var categoryLabels = map[Category]string{
	CategoryAll:    "Semua Aktivitas",
	CategoryCreate: "Tambah Data",
	CategoryUpdate: "Ubah Data",
	CategoryDelete: "Hapus Data",
	CategoryLogin:  "Masuk",
	CategoryLogout: "Keluar",
}

var entityLabels = map[EntityType]string{
	EntityProfile:    "Profil Desa",
	EntityNews:       "Berita & Pengumuman",
	EntityGallery:    "Galeri",
	EntityProduct:    "Produk Unggulan",
	EntityContact:    "Kontak",
	EntityAspiration: "Aspirasi Warga",
	EntityAdmin:      "Admin",
	EntityOther:      "Lainnya",
}

// Categories mengembalikan kategori konkret dalam urutan tampilan (tanpa ALL).
func Categories() []Category {
	return []Category{CategoryCreate, CategoryUpdate, CategoryDelete, CategoryLogin, CategoryLogout}
}

// EntityTypes mengembalikan jenis entitas konkret dalam urutan tampilan.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityProfile,
		EntityNews,
		EntityGallery,
		EntityProduct,
		EntityContact,
		EntityAspiration,
		EntityAdmin,
		EntityOther,
	}
}

// Known melaporkan apakah kategori termasuk himpunan tertutup (ALL tidak termasuk).
func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok && c != CategoryAll
}

// Label mengembalikan label tampilan. Nilai asing tidak pernah membuat panic.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return fallbackLabel(string(c))
}

// Known melaporkan apakah jenis entitas termasuk himpunan tertutup.
func (e EntityType) Known() bool {
	_, ok := entityLabels[e]
	return ok
}

// Label mengembalikan label tampilan jenis entitas.
func (e EntityType) Label() string {
	if label, ok := entityLabels[e]; ok {
		return label
	}
	return fallbackLabel(string(e))
}

// fallbackLabel turns "data_warga" into "Data Warga".
func fallbackLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EmptyDisplay
	}
	spaced := strings.NewReplacer("_", " ", "-", " ").Replace(raw)
	return cases.Title(language.Indonesian).String(strings.ToLower(strings.Join(strings.Fields(spaced), " ")))
}

// TaxonomyOption adalah pasangan nilai/label untuk dropdown filter.
type TaxonomyOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CategoryOptions menyertakan ALL di posisi pertama.
func CategoryOptions() []TaxonomyOption {
	opts := []TaxonomyOption{{Value: string(CategoryAll), Label: CategoryAll.Label()}}
	for _, c := range Categories() {
		opts = append(opts, TaxonomyOption{Value: string(c), Label: c.Label()})
	}
	return opts
}

// EntityOptions menyertakan opsi "semua" dengan nilai kosong.
func EntityOptions() []TaxonomyOption {
	opts := []TaxonomyOption{{Value: "", Label: "Semua Jenis"}}
	for _, e := range EntityTypes() {
		opts = append(opts, TaxonomyOption{Value: string(e), Label: e.Label()})
	}
	return opts
}
