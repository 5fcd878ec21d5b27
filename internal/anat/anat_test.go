package anat_test

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/phypno/internal/anat"
)

var (
	home   = "testdata"
	fsDir  = filepath.Join("testdata", "bert")
	lutTxt = filepath.Join("testdata", anat.DefaultLUTName)
)

var _ = Describe("ImportLUT", func() {
	It("reads the default table from the installation directory", func() {
		lut, err := anat.ImportLUT(home, "")
		Expect(err).NotTo(HaveOccurred())

		last := lut.Len() - 1
		Expect(lut.Index[last]).To(Equal(14175))
		Expect(lut.Label[last]).To(Equal("wm_rh_S_temporal_transverse"))
		Expect(lut.RGBA[last]).To(Equal([4]float64{221, 60, 60, 0}))
	})

	It("fails with an I/O error when no installation directory is configured", func() {
		_, err := anat.ImportLUT("", "")
		Expect(err).To(MatchError(anat.ErrHomeUnavailable))
	})

	It("fails with an I/O error when the installation has no table", func() {
		_, err := anat.ImportLUT(GinkgoT().TempDir(), "")
		Expect(err).To(MatchError(anat.ErrHomeUnavailable))
		Expect(err).To(MatchError(fs.ErrNotExist))
	})

	It("lets an explicit path override the installation directory", func() {
		lut, err := anat.ImportLUT("", lutTxt)
		Expect(err).NotTo(HaveOccurred())
		Expect(lut.Len()).To(BeNumerically(">", 0))
	})

	It("reports a missing explicit table as not found", func() {
		_, err := anat.ImportLUT(home, filepath.Join("testdata", "does_not_exist"))
		Expect(err).To(MatchError(anat.ErrLUTNotFound))
		Expect(err).To(MatchError(fs.ErrNotExist))
		Expect(err).NotTo(MatchError(anat.ErrHomeUnavailable))
	})

	It("rejects malformed rows with a line number", func() {
		_, err := anat.ImportLUT("", filepath.Join("testdata", "bad_lut.txt"))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line 2"))
	})

	It("indexes labels both ways", func() {
		lut, err := anat.ParseLUT(strings.NewReader("17 Left-Hippocampus 220 216 20 0\n"))
		Expect(err).NotTo(HaveOccurred())

		label, ok := lut.LabelOf(17)
		Expect(ok).To(BeTrue())
		Expect(label).To(Equal("Left-Hippocampus"))

		idx, ok := lut.IndexOf("Left-Hippocampus")
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(17))

		_, ok = lut.ColorOf(18)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Freesurfer", func() {
	var fsurf *anat.Freesurfer

	BeforeEach(func() {
		var err error
		fsurf, err = anat.NewFreesurfer(fsDir, home, "")
		Expect(err).NotTo(HaveOccurred())
	})

	It("fails on an empty directory", func() {
		_, err := anat.NewFreesurfer("", home, "")
		Expect(err).To(MatchError(fs.ErrNotExist))
	})

	It("fails on a missing directory", func() {
		_, err := anat.NewFreesurfer(filepath.Join("testdata", "nobody"), home, "")
		Expect(err).To(MatchError(fs.ErrNotExist))
	})

	It("propagates lookup table errors", func() {
		_, err := anat.NewFreesurfer(fsDir, home, filepath.Join("testdata", "does_not_exist"))
		Expect(err).To(MatchError(anat.ErrLUTNotFound))
	})

	It("exposes the lookup table", func() {
		Expect(fsurf.Dir).To(Equal(fsDir))
		last := fsurf.LUT.Len() - 1
		Expect(fsurf.LUT.Index[last]).To(Equal(14175))
	})

	It("finds an exact region", func() {
		label, approx, err := fsurf.FindBrainRegion([3]float64{37, 48, 16}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(label).To(Equal("ctx-rh-parsorbitalis"))
		Expect(approx).To(Equal(0))
	})

	It("rounds to the nearest voxel", func() {
		label, approx, err := fsurf.FindBrainRegion([3]float64{37.4, 47.6, 16.2}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(label).To(Equal("ctx-rh-parsorbitalis"))
		Expect(approx).To(Equal(0))
	})

	It("returns the sentinel when nothing is within range", func() {
		label, approx, err := fsurf.FindBrainRegion([3]float64{0, 0, 0}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(label).To(Equal(anat.NotFound))
		Expect(approx).To(Equal(2))
	})

	It("expands the radius and breaks ties by lowest index", func() {
		label, approx, err := fsurf.FindBrainRegion([3]float64{0, 0, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(label).To(Equal("Left-VentralDC"))
		Expect(approx).To(Equal(4))
	})

	It("skips excluded regions", func() {
		label, approx, err := fsurf.FindBrainRegion([3]float64{0, 0, 0}, 10, anat.WithExclude("VentralDC"))
		Expect(err).NotTo(HaveOccurred())
		Expect(label).To(Equal("Brain-Stem"))
		Expect(approx).To(Equal(6))
	})

	It("uses the requested parcellation", func() {
		label, approx, err := fsurf.FindBrainRegion([3]float64{37, 48, 16}, 3, anat.WithParcellation("aseg"))
		Expect(err).NotTo(HaveOccurred())
		Expect(label).To(Equal(anat.NotFound))
		Expect(approx).To(Equal(3))

		_, _, err = fsurf.FindBrainRegion([3]float64{0, 0, 0}, 1, anat.WithParcellation("bogus"))
		Expect(err).To(MatchError(anat.ErrUnknownParcellation))
	})

	It("rejects atlases referencing unknown indices", func() {
		_, _, err := fsurf.FindBrainRegion([3]float64{0, 0, 0}, 1, anat.WithParcellation("aparc.a2009s"))
		Expect(err).To(MatchError(anat.ErrUnknownIndex))
	})

	It("rejects a negative radius", func() {
		_, _, err := fsurf.FindBrainRegion([3]float64{0, 0, 0}, -1)
		Expect(err).To(MatchError(anat.ErrInvalidArgument))
	})

	It("rejects a radius above the search limit", func() {
		_, _, err := fsurf.FindBrainRegion([3]float64{0, 0, 0}, anat.MaxApprox+1)
		Expect(err).To(MatchError(anat.ErrInvalidArgument))
	})

	It("answers far from every region at the largest radius", func() {
		label, approx, err := fsurf.FindBrainRegion([3]float64{5000, 5000, 5000}, anat.MaxApprox)
		Expect(err).NotTo(HaveOccurred())
		Expect(label).To(Equal(anat.NotFound))
		Expect(approx).To(Equal(anat.MaxApprox))
	})

	It("serves concurrent lookups from one instance", func() {
		var wg sync.WaitGroup
		labels := make([]string, 8)
		for i := range labels {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()
				label, _, err := fsurf.FindBrainRegion([3]float64{0, 0, 0}, 5)
				Expect(err).NotTo(HaveOccurred())
				labels[i] = label
			}(i)
		}
		wg.Wait()
		for _, l := range labels {
			Expect(l).To(Equal("Left-VentralDC"))
		}
	})
})

var _ = Describe("Atlas", func() {
	It("ignores background voxels", func() {
		a, err := anat.ParseAtlas(strings.NewReader("0 0 0 0\n1 0 0 5\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Len()).To(Equal(1))

		idx, approx, ok := a.Nearest(anat.Voxel{0, 0, 0}, 3, nil)
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(5))
		Expect(approx).To(Equal(1))
	})

	It("measures Chebyshev distance", func() {
		a := anat.NewAtlas()
		a.Set(anat.Voxel{2, 2, 2}, 7)
		_, approx, ok := a.Nearest(anat.Voxel{0, 0, 0}, 5, nil)
		Expect(ok).To(BeTrue())
		Expect(approx).To(Equal(2))
	})

	It("stops searching past the labeled extent", func() {
		a := anat.NewAtlas()
		a.Set(anat.Voxel{0, 0, 0}, 3)
		idx, approx, ok := a.Nearest(anat.Voxel{1000, 0, 0}, 100000, nil)
		Expect(ok).To(BeFalse())
		Expect(idx).To(Equal(0))
		Expect(approx).To(Equal(100000))

		_, approx, ok = anat.NewAtlas().Nearest(anat.Voxel{}, 7, nil)
		Expect(ok).To(BeFalse())
		Expect(approx).To(Equal(7))
	})

	It("agrees with an exhaustive scan", func() {
		a := anat.NewAtlas()
		type entry struct {
			v   anat.Voxel
			idx int
		}
		var entries []entry
		for i := 0; i < 60; i++ {
			v := anat.Voxel{(i*7)%13 - 6, (i*5)%11 - 5, (i*3)%9 - 4}
			idx := i%17 + 1
			if a.At(v) != 0 {
				continue
			}
			a.Set(v, idx)
			entries = append(entries, entry{v, idx})
		}

		for x := -9; x <= 9; x += 3 {
			for y := -9; y <= 9; y += 3 {
				for z := -9; z <= 9; z += 3 {
					q := anat.Voxel{x, y, z}
					wantIdx, wantR := 0, -1
					for _, e := range entries {
						d := max(absInt(e.v[0]-x), absInt(e.v[1]-y), absInt(e.v[2]-z))
						if d > 6 {
							continue
						}
						if wantR < 0 || d < wantR || (d == wantR && e.idx < wantIdx) {
							wantIdx, wantR = e.idx, d
						}
					}

					idx, approx, ok := a.Nearest(q, 6, nil)
					if wantR < 0 {
						Expect(ok).To(BeFalse(), "query %v", q)
						Expect(approx).To(Equal(6))
						continue
					}
					Expect(ok).To(BeTrue(), "query %v", q)
					Expect(approx).To(Equal(wantR), "query %v", q)
					Expect(idx).To(Equal(wantIdx), "query %v", q)
				}
			}
		}
	})

	It("rejects malformed rows", func() {
		_, err := anat.ParseAtlas(strings.NewReader("1 2 3\n"))
		Expect(err).To(MatchError(ContainSubstring("line 1")))
	})
})

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
