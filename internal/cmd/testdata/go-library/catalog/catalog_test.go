package catalog

import "testing"

func Test_Catalog(t *testing.T) {}
