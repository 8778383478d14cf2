package config

// Configuration files are YAML or JSON. JSON objects are unordered in
// principle, but the build tooling that writes them emits the module mappings
// in priority order. Decoding through "yaml.Node" keeps that order, which a
// Go map would lose.

import (
	"fmt"
	"os"
	"sync"

	"github.com/ngbazel/resolvebazel/internal/helpers"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var knownKeys = []string{
	"workspace_name", "workspaceName",
	"root_dir", "rootDir",
	"node_modules_root", "nodeModulesRoot",
	"module_mappings", "moduleMappings",
	"resolve_extensions", "resolveExtensions",
	"script_extension", "scriptExtension",
	"module_extension", "moduleExtension",
	"external",
}

var keyTypoDetector struct {
	once     sync.Once
	detector helpers.TypoDetector
}

func unknownKeyError(key *yaml.Node) error {
	keyTypoDetector.once.Do(func() {
		keyTypoDetector.detector = helpers.MakeTypoDetector(knownKeys)
	})
	if corrected, ok := keyTypoDetector.detector.MaybeCorrectTypo(key.Value); ok {
		return nodeError(key, fmt.Sprintf("unknown key %q (did you mean %q?)", key.Value, corrected))
	}
	return nodeError(key, fmt.Sprintf("unknown key %q", key.Value))
}

func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "failed to load config %v", path)
	}
	options, err := Parse(data)
	if err != nil {
		return Options{}, errors.Wrapf(err, "failed to parse config %v", path)
	}
	return options, nil
}

func Parse(data []byte) (Options, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Options{}, err
	}

	var options Options
	if root.Kind == 0 {
		// Empty document
		return options, nil
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return Options{}, nodeError(node, "expected a mapping at the top level")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var err error

		switch key.Value {
		case "workspace_name", "workspaceName":
			options.WorkspaceName, err = nodeString(value)
		case "root_dir", "rootDir":
			options.RootDir, err = nodeString(value)
		case "node_modules_root", "nodeModulesRoot":
			options.NodeModulesRoot, err = nodeString(value)
		case "module_mappings", "moduleMappings":
			options.ModuleMappings, err = parseModuleMappings(value)
		case "resolve_extensions", "resolveExtensions":
			options.ResolveExtensions, err = nodeStrings(value)
		case "script_extension", "scriptExtension":
			options.ScriptExtension, err = nodeString(value)
		case "module_extension", "moduleExtension":
			options.ModuleExtension, err = nodeString(value)
		case "external":
			options.External, err = nodeStrings(value)
		default:
			err = unknownKeyError(key)
		}

		if err != nil {
			return Options{}, err
		}
	}

	return options, nil
}

// Mappings are either a mapping from prefix to target, or a list of
// {prefix, target} entries. Both keep the authored order.
func parseModuleMappings(node *yaml.Node) ([]ModuleMapping, error) {
	switch node.Kind {
	case yaml.MappingNode:
		mappings := make([]ModuleMapping, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			target, err := nodeString(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			mappings = append(mappings, ModuleMapping{Prefix: node.Content[i].Value, Target: target})
		}
		return mappings, nil

	case yaml.SequenceNode:
		mappings := make([]ModuleMapping, 0, len(node.Content))
		for _, item := range node.Content {
			var entry struct {
				Prefix string `yaml:"prefix"`
				Target string `yaml:"target"`
			}
			if err := item.Decode(&entry); err != nil {
				return nil, err
			}
			mappings = append(mappings, ModuleMapping{Prefix: entry.Prefix, Target: entry.Target})
		}
		return mappings, nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	}

	return nil, nodeError(node, "expected module mappings to be a mapping or a list")
}

func nodeString(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", nodeError(node, "expected a string")
	}
	if node.Tag == "!!null" {
		return "", nil
	}
	return node.Value, nil
}

func nodeStrings(node *yaml.Node) ([]string, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, nodeError(node, "expected a list of strings")
	}
	values := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		value, err := nodeString(item)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func nodeError(node *yaml.Node, text string) error {
	return errors.Errorf("line %d: %s", node.Line, text)
}

// ToYAML renders the options in the same layout that "Parse" reads, with the
// module mappings in their effective order.
func (options Options) ToYAML() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	addScalar := func(key string, value string) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value, Style: yaml.DoubleQuotedStyle})
	}
	addList := func(key string, values []string) {
		list := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, value := range values {
			list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: value, Style: yaml.DoubleQuotedStyle})
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, list)
	}

	addScalar("workspace_name", options.WorkspaceName)
	addScalar("root_dir", options.RootDir)
	addScalar("node_modules_root", options.NodeModulesRoot)

	mappings := &yaml.Node{Kind: yaml.MappingNode}
	for _, mapping := range options.ModuleMappings {
		mappings.Content = append(mappings.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: mapping.Prefix, Style: yaml.DoubleQuotedStyle},
			&yaml.Node{Kind: yaml.ScalarNode, Value: mapping.Target, Style: yaml.DoubleQuotedStyle})
	}
	root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "module_mappings"}, mappings)

	addList("resolve_extensions", options.ResolveExtensions)
	addScalar("script_extension", options.ScriptExtension)
	addScalar("module_extension", options.ModuleExtension)
	addList("external", options.External)

	return yaml.Marshal(root)
}
