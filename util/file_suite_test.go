package util_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gitify-app/updater/util"
)

var _ = Describe("Util", func() {

	var (
		tmpDir string
	)

	type TestConfig struct {
		SomeMap   map[string]string
		SomeArray []string
		SomeField int
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "updater_util_test_tmp_*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.RemoveAll(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Config", func() {
		Context("in JSON format", func() {
			It("should be written and read successfully", func() {
				m := make(map[string]string)
				m["key1"] = "value1"
				m["key2"] = "value2"

				arr := []string{"value1", "value2"}

				written := &TestConfig{
					SomeMap:   m,
					SomeArray: arr,
					SomeField: 99,
				}

				err := util.WriteJson(context.Background(), tmpDir+"/testconfig.json", written)
				Expect(err).NotTo(HaveOccurred())

				read, err := util.ReadJson(tmpDir+"/testconfig.json", &TestConfig{})
				Expect(err).NotTo(HaveOccurred())
				Expect(read).NotTo(BeNil())
				Expect(read.(*TestConfig).SomeMap["key1"]).To(BeEquivalentTo(written.SomeMap["key1"]))
				Expect(read.(*TestConfig).SomeMap["key2"]).To(BeEquivalentTo(written.SomeMap["key2"]))
				Expect(read.(*TestConfig).SomeArray).To(ContainElements(arr))
				Expect(read.(*TestConfig).SomeField).To(BeEquivalentTo(written.SomeField))
			})

			It("should create missing parent directories", func() {
				path := filepath.Join(tmpDir, "nested", "dir", "config.json")

				err := util.WriteJson(context.Background(), path, &TestConfig{SomeField: 1})
				Expect(err).NotTo(HaveOccurred())
				Expect(util.FileExists(path)).To(BeTrue())
			})

			It("should leave no temp files behind", func() {
				path := filepath.Join(tmpDir, "config.json")

				err := util.WriteJson(context.Background(), path, &TestConfig{SomeField: 1})
				Expect(err).NotTo(HaveOccurred())

				entries, err := os.ReadDir(tmpDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
			})

			It("should not write when the context is cancelled", func() {
				path := filepath.Join(tmpDir, "config.json")
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				err := util.WriteJson(ctx, path, &TestConfig{SomeField: 1})
				Expect(err).To(HaveOccurred())
				Expect(util.FileExists(path)).To(BeFalse())
			})
		})
	})
})
