package transfer

const commandsHelp = `
 Description: exports and imports the skin weights of a mesh to/from a .scw file.

 Modes:  -mode export     -mesh <names>        write the weights of the single skinned mesh in the selection
         -mode exclusive  -mesh <names>        write one .bsw file per influence
         -mode import     -file <name>         read weights and bind them to the scene
                          -assign old=new,..   rename stored names directly
                          -search s -replace r replace text in names not found in the scene
                          -prefix p -suffix s  add text to names not found in the scene
                          -preset <name>       apply a named rename preset from -presets <file.yaml>
                          -reverse             bind influences in reverse file order
                          -saveas <name>       store the renamed weights as a new file
                          -rebind              replace an existing skin of the mesh
         -mode savepreset -preset <name>       add the rename options above as a step of a preset
                          -presets <file.yaml>
         -mode check                           validate every weights file of the project
         -mode dump       -file <name>         print weights file as yaml
         -mode serve      -i <addr>            start http server
         -mode help                            this message

 export, exclusive, import and serve work on the -scene <file.gltf|file.glb>.
 Files are stored in <project>/data/skinWeights. Names that are not found in the
 scene stop the import; rerun it with a rename option.
`

// CommandsHelp describes the available commands.
func CommandsHelp() string {
	return commandsHelp
}
