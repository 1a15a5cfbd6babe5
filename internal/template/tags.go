package template

// Classic Packer JSON template vocabulary. Each tag maps to a generic record
// constructor; field conveniences beyond Set/Get are intentionally absent.

var builderTags = []string{
	"amazon-chroot",
	"amazon-ebs",
	"amazon-instance",
	"azure-arm",
	"digitalocean",
	"docker",
	"googlecompute",
	"hyperv-iso",
	"null",
	"openstack",
	"parallels-iso",
	"qemu",
	"virtualbox-iso",
	"virtualbox-ovf",
	"vmware-iso",
	"vmware-vmx",
}

var provisionerTags = []string{
	"ansible",
	"ansible-local",
	"breakpoint",
	"chef-client",
	"chef-solo",
	"file",
	"powershell",
	"puppet-masterless",
	"puppet-server",
	"salt-masterless",
	"shell",
	"shell-local",
	"windows-restart",
	"windows-shell",
}

var postProcessorTags = []string{
	"artifice",
	"checksum",
	"compress",
	"docker-import",
	"docker-push",
	"docker-save",
	"docker-tag",
	"manifest",
	"shell-local",
	"vagrant",
	"vagrant-cloud",
}

func init() {
	registerGeneric(builderRegistry, builderTags)
	registerGeneric(provisionerRegistry, provisionerTags)
	registerGeneric(postProcessorRegistry, postProcessorTags)
}

func registerGeneric(r *Registry, tags []string) {
	for _, tag := range tags {
		r.Register(tag, func() *Record { return newRecord(tag) })
	}
}
