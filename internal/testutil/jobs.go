package testutil

import "strings"

// DemoJob is the minimal valid job: one region, one boundary referencing it,
// and one node with four cores. Its mesh lives at mesh/cavity.msh relative to
// the job file.
const DemoJob = `
project "demo" {
  mesh        = "mesh/cavity.msh"
  remote_root = "/scratch/demo"

  material "cavity" {
    attributes   = [1]
    permittivity = 1.0
  }

  boundary "cavity" {
    type       = "pec"
    attributes = [2]
  }

  resources {
    nodes          = 1
    cores_per_node = 4
    wall_time      = "01:00:00"
    memory         = "4G"
  }
}
`

// DemoFiles returns the demo job and its mesh laid out for Setup.
func DemoFiles() map[string]string {
	return map[string]string{
		"demo.hcl":        DemoJob,
		"mesh/cavity.msh": "$MeshFormat\n",
	}
}

// Replace returns job with the first occurrence of old replaced by with. It
// panics when old is absent so fixtures cannot silently drift.
func Replace(job, old, with string) string {
	if !strings.Contains(job, old) {
		panic("testutil: fixture does not contain " + old)
	}
	return strings.Replace(job, old, with, 1)
}
