package activity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryLabels(t *testing.T) {
	require.Equal(t, "Semua Aktivitas", CategoryAll.Label())
	require.Equal(t, "Tambah Data", CategoryCreate.Label())
	require.Equal(t, "Keluar", CategoryLogout.Label())
	require.Equal(t, "Arsip Lama", Category("ARSIP_LAMA").Label())
	require.Equal(t, EmptyDisplay, Category("  ").Label())
}

func TestCategoryKnownExcludesAll(t *testing.T) {
	for _, c := range Categories() {
		require.True(t, c.Known(), c)
	}
	require.False(t, CategoryAll.Known())
	require.False(t, Category("PUBLISH").Known())
}

func TestEntityTypeLabels(t *testing.T) {
	require.Equal(t, "Berita & Pengumuman", EntityNews.Label())
	require.Equal(t, "Data Warga", EntityType("data-warga").Label())
	require.Equal(t, EmptyDisplay, EntityAll.Label())
	require.True(t, EntityOther.Known())
	require.False(t, EntityAll.Known())
}

func TestTaxonomyOptions(t *testing.T) {
	cats := CategoryOptions()
	require.Len(t, cats, len(Categories())+1)
	require.Equal(t, TaxonomyOption{Value: "ALL", Label: "Semua Aktivitas"}, cats[0])

	ents := EntityOptions()
	require.Len(t, ents, len(EntityTypes())+1)
	require.Equal(t, "", ents[0].Value)
	require.Equal(t, "profil", ents[1].Value)
}
