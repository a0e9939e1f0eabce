package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.NotNil(t, c)

	t.Run("AllFamiliesPresent", func(t *testing.T) {
		want := []string{"sd15", "sd21", "sdxl", "sd3", "flux1", "flux2", "z_image", "wan22", "svd", "cascade"}
		var got []string
		for _, f := range c.Families {
			got = append(got, f.ID)
		}
		require.Equal(t, want, got)
	})

	t.Run("EveryFamilyHasCheckpoints", func(t *testing.T) {
		for _, f := range c.Families {
			require.NotEmpty(t, f.Checkpoints, "family %s", f.ID)
			require.NotEmpty(t, f.Label, "family %s", f.ID)
			require.Positive(t, f.DefaultResolution, "family %s", f.ID)
		}
	})

	t.Run("AuxiliaryInventoryLoaded", func(t *testing.T) {
		require.Len(t, c.Auxiliary.VAEs, 3)
		require.Len(t, c.Auxiliary.Upscalers, 2)
		require.Len(t, c.Auxiliary.FaceFixers, 2)
		require.Len(t, c.Auxiliary.ControlModels, 3)
	})

	t.Run("SevenFocusAspects", func(t *testing.T) {
		require.Len(t, c.FocusAspects, 7)
		require.True(t, c.HasFocusAspect("Lighting & Atmosphere"))
		require.False(t, c.HasFocusAspect("Lighting"))
	})
}

func TestFamilyLookup(t *testing.T) {
	c := MustLoad()

	t.Run("KnownID", func(t *testing.T) {
		f, ok := c.Family("sdxl")
		require.True(t, ok)
		require.Equal(t, "SDXL 1.0 Family", f.Label)
		require.Len(t, f.Checkpoints, 3)
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, ok := c.Family("nonexistent")
		require.False(t, ok)
	})

	t.Run("DefaultIsFirstFamily", func(t *testing.T) {
		require.Equal(t, "sd15", c.DefaultFamily().ID)
	})
}

func TestCheckpointResolution(t *testing.T) {
	c := MustLoad()
	sdxl, ok := c.Family("sdxl")
	require.True(t, ok)

	t.Run("KnownIDResolves", func(t *testing.T) {
		require.Equal(t, "SDXL 1.0 Refiner", sdxl.Checkpoint("sdxl_refiner").Label)
	})

	t.Run("UnknownIDFallsBackToFirst", func(t *testing.T) {
		require.Equal(t, "sdxl_base", sdxl.Checkpoint("sd15_base").ID)
	})

	t.Run("EmptyIDFallsBackToFirst", func(t *testing.T) {
		require.Equal(t, "sdxl_base", sdxl.Checkpoint("").ID)
	})
}
